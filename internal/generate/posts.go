package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/google/uuid"

	"github.com/expvn/explog/internal/model"
)

var (
	imageFile = regexp.MustCompile(`(?i)\.(jpe?g|png|webp|gif)$`)

	dateLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05 -07:00",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}
)

const displayDate = "2 Jan 2006"

// frontMatter is the header block of a post.
type frontMatter struct {
	ID       string     `yaml:"id"`
	Title    string     `yaml:"title"`
	Summary  string     `yaml:"summary"`
	Image    string     `yaml:"image"`
	Author   string     `yaml:"author"`
	Date     string     `yaml:"date"`
	Category string     `yaml:"category"`
	Tags     stringList `yaml:"tags"`
}

// stringList accepts both a YAML sequence and a comma separated scalar.
type stringList []string

func (l *stringList) UnmarshalYAML(unmarshal func(any) error) error {
	var many []string
	if err := unmarshal(&many); err == nil {
		*l = cleanList(many)
		return nil
	}
	var one string
	if err := unmarshal(&one); err != nil {
		return err
	}
	*l = cleanList(strings.Split(one, ","))
	return nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// collectPosts reads every markdown file under <content>/posts in walk order.
// Files without a title and duplicate slugs are skipped with a warning.
func (g *Generator) collectPosts(ctx context.Context) ([]model.PostFull, int, error) {
	root := filepath.Join(g.opts.ContentDir, "posts")
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		g.log.Warn().Str("dir", root).Msg("no posts directory, site will have no posts")
		return nil, 0, nil
	}

	var (
		posts   []model.PostFull
		skipped int
		seen    = map[string]string{}
	)
	err := filepath.WalkDir(root, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", file, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".md") {
			return nil
		}
		post, ok, err := g.readPost(file)
		if err != nil {
			return err
		}
		if !ok {
			skipped++
			return nil
		}
		if first, dup := seen[post.Slug]; dup {
			g.log.Warn().Str("file", file).Str("slug", post.Slug).Str("first", first).Msg("duplicate slug, skipping")
			skipped++
			return nil
		}
		seen[post.Slug] = file
		posts = append(posts, post)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return posts, skipped, nil
}

func (g *Generator) readPost(file string) (model.PostFull, bool, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return model.PostFull{}, false, fmt.Errorf("read %s: %w", file, err)
	}
	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
	if err != nil {
		g.log.Warn().Err(err).Str("file", file).Msg("unreadable frontmatter, skipping")
		return model.PostFull{}, false, nil
	}
	if strings.TrimSpace(fm.Title) == "" {
		g.log.Warn().Str("file", file).Msg("no title in frontmatter, skipping")
		return model.PostFull{}, false, nil
	}

	rel, err := filepath.Rel(g.opts.ContentDir, file)
	if err != nil {
		return model.PostFull{}, false, fmt.Errorf("relative path of %s: %w", file, err)
	}
	rel = filepath.ToSlash(rel)

	post := model.PostFull{
		ID:       strings.TrimSpace(fm.ID),
		Title:    strings.TrimSpace(fm.Title),
		Slug:     postSlug(rel),
		Summary:  strings.TrimSpace(fm.Summary),
		Image:    g.postImage(fm.Image, path.Dir(rel), filepath.Dir(file)),
		Author:   strings.TrimSpace(fm.Author),
		Date:     "Unknown",
		Category: strings.TrimSpace(fm.Category),
		Tags:     []string(fm.Tags),
		Path:     rel,
	}
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.Author == "" {
		post.Author = "Anonymous"
	}
	if post.Category == "" {
		post.Category = model.Uncategorized
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}
	if post.Summary == "" {
		post.Summary = g.summarize(body)
	}
	if d := strings.TrimSpace(fm.Date); d != "" {
		if t, ok := parseDate(d); ok {
			post.Date = t.Format(displayDate)
			post.DateRaw = t.UTC().Format(time.RFC3339)
		} else {
			g.log.Warn().Str("file", file).Str("date", d).Msg("unparseable date, use YYYY-MM-DD or RFC 3339")
		}
	}
	return post, true, nil
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// postSlug is the post's directory below posts/, with nested directories
// joined by "-". A file directly in posts/ is named after itself.
func postSlug(rel string) string {
	dir := strings.Trim(strings.TrimPrefix(path.Dir(rel), "posts"), "/")
	if dir == "" {
		base := path.Base(rel)
		return strings.TrimSuffix(base, path.Ext(base))
	}
	return strings.ReplaceAll(dir, "/", "-")
}

// postImage resolves the frontmatter image under the post directory, or
// finds the first picture in the post's images/ then attachments/ folder.
func (g *Generator) postImage(img, postDirRel, postDirAbs string) string {
	img = strings.TrimSpace(img)
	if strings.HasPrefix(img, "http://") || strings.HasPrefix(img, "https://") {
		return img
	}
	if img != "" {
		return "/content/" + path.Join(postDirRel, img)
	}
	for _, sub := range []string{"images", "attachments"} {
		entries, err := os.ReadDir(filepath.Join(postDirAbs, sub))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() && imageFile.MatchString(e.Name()) {
				return "/content/" + path.Join(postDirRel, sub, e.Name())
			}
		}
	}
	return ""
}

// sortPosts orders newest first; undated posts go last in walk order.
func sortPosts(posts []model.PostFull) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i].DateRaw, posts[j].DateRaw
		switch {
		case a == "":
			return false
		case b == "":
			return true
		}
		ta, _ := time.Parse(time.RFC3339, a)
		tb, _ := time.Parse(time.RFC3339, b)
		return ta.After(tb)
	})
}
