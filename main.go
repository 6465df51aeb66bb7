package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/expvn/explog/cmd"
	"github.com/expvn/explog/internal/model"
)

// loadSiteSource decodes the site, hero, home and menu sections of the
// config file. No file means every section takes its built-in default.
func loadSiteSource(filename string) (model.SiteSource, error) {
	var src model.SiteSource
	if filename == "" {
		return src, nil
	}
	yamlFile, err := os.ReadFile(filename)
	if err != nil {
		return src, fmt.Errorf("error reading config file %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(yamlFile, &src); err != nil {
		return src, fmt.Errorf("error unmarshalling config file %s: %w", filename, err)
	}
	return src, nil
}

func main() {
	cmd.Execute(loadSiteSource)
}
