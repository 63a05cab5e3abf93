// Package project detects project and module boundaries by scanning for
// marker files (Cargo.toml, package.json, go.mod, ...). Detected modules
// feed the store and the module rollup engine.
package project

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/codegraph/internal/model"
)

// Detector walks a root directory and builds the module forest.
type Detector struct {
	rootPath string
	modules  map[string]*model.Module
}

// NewDetector creates a detector for the given root path.
func NewDetector(rootPath string) *Detector {
	return &Detector{
		rootPath: rootPath,
		modules:  make(map[string]*model.Module),
	}
}

// DetectModules scans the directory tree and returns all modules. The
// root always yields a module; directories without markers become
// Directory modules named after themselves.
func (d *Detector) DetectModules() []*model.Module {
	d.scanDirectory(d.rootPath, "")

	modules := make([]*model.Module, 0, len(d.modules))
	for _, m := range d.modules {
		modules = append(modules, m)
	}
	return modules
}

// SetModules seeds the detector with previously detected modules, for
// resolving files without a rescan.
func (d *Detector) SetModules(modules []*model.Module) {
	for _, m := range modules {
		d.modules[m.ID] = m
	}
}

func (d *Detector) scanDirectory(dir, parentID string) {
	relPath := d.relativePath(dir)
	currentID := model.ModuleIDForPath(relPath)

	module := d.detectProject(dir)
	if module == nil {
		name := "root"
		if relPath != "" {
			name = filepath.Base(dir)
		}
		module = &model.Module{
			Name:        name,
			Path:        relPath,
			Language:    model.LangUnknown,
			ProjectType: model.ProjectDirectory,
		}
	}
	module.ID = currentID
	if parentID != "" && parentID != currentID {
		module.ParentID = parentID
	}
	d.modules[currentID] = module

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub := filepath.Join(dir, entry.Name())
		if shouldSkipDir(entry.Name()) {
			continue
		}
		d.scanDirectory(sub, currentID)
	}
}

// detectProject checks marker files in precedence order: Rust, Python,
// Node, Go, Java, Terraform.
func (d *Detector) detectProject(dir string) *model.Module {
	if m := d.detectRust(dir); m != nil {
		return m
	}
	if m := d.detectPython(dir); m != nil {
		return m
	}
	if m := d.detectNode(dir); m != nil {
		return m
	}
	if m := d.detectGo(dir); m != nil {
		return m
	}
	if m := d.detectJava(dir); m != nil {
		return m
	}
	return d.detectTerraform(dir)
}

func (d *Detector) detectRust(dir string) *model.Module {
	cargoToml := filepath.Join(dir, "Cargo.toml")
	if content, err := os.ReadFile(cargoToml); err == nil {
		text := string(content)

		projectType := model.ProjectCrate
		if strings.Contains(text, "[workspace]") {
			projectType = model.ProjectWorkspace
		}

		name := extractTOMLValue(text, "name")
		if name == "" {
			name = filepath.Base(dir)
		}
		return &model.Module{
			Name:        name,
			Path:        d.relativePath(dir),
			Language:    model.LangRust,
			ProjectType: projectType,
		}
	}

	// Rust sub-module directories carry mod.rs or lib.rs.
	if fileExists(filepath.Join(dir, "mod.rs")) || fileExists(filepath.Join(dir, "lib.rs")) {
		return &model.Module{
			Name:        filepath.Base(dir),
			Path:        d.relativePath(dir),
			Language:    model.LangRust,
			ProjectType: model.ProjectDirectory,
		}
	}
	return nil
}

func (d *Detector) detectPython(dir string) *model.Module {
	for _, marker := range []string{"pyproject.toml", "setup.py", "setup.cfg"} {
		if fileExists(filepath.Join(dir, marker)) {
			return &model.Module{
				Name:        filepath.Base(dir),
				Path:        d.relativePath(dir),
				Language:    model.LangPython,
				ProjectType: model.ProjectPackage,
			}
		}
	}

	if fileExists(filepath.Join(dir, "__init__.py")) {
		return &model.Module{
			Name:        filepath.Base(dir),
			Path:        d.relativePath(dir),
			Language:    model.LangPython,
			ProjectType: model.ProjectDirectory,
		}
	}
	return nil
}

func (d *Detector) detectNode(dir string) *model.Module {
	content, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return nil
	}

	name := extractJSONValue(string(content), "name")
	if name == "" {
		name = filepath.Base(dir)
	}

	language := model.LangJavaScript
	if fileExists(filepath.Join(dir, "tsconfig.json")) {
		language = model.LangTypeScript
	}

	return &model.Module{
		Name:        name,
		Path:        d.relativePath(dir),
		Language:    language,
		ProjectType: model.ProjectNpmPackage,
	}
}

func (d *Detector) detectGo(dir string) *model.Module {
	content, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return nil
	}

	name := ""
	for _, line := range strings.Split(string(content), "\n") {
		if strings.HasPrefix(line, "module ") {
			name = strings.TrimSpace(strings.TrimPrefix(line, "module "))
			break
		}
	}
	if name == "" {
		name = filepath.Base(dir)
	}

	return &model.Module{
		Name:        name,
		Path:        d.relativePath(dir),
		Language:    model.LangGo,
		ProjectType: model.ProjectGoModule,
	}
}

func (d *Detector) detectJava(dir string) *model.Module {
	for _, marker := range []string{"pom.xml", "build.gradle", "build.gradle.kts"} {
		if fileExists(filepath.Join(dir, marker)) {
			return &model.Module{
				Name:        filepath.Base(dir),
				Path:        d.relativePath(dir),
				Language:    model.LangJava,
				ProjectType: model.ProjectJavaProject,
			}
		}
	}
	return nil
}

func (d *Detector) detectTerraform(dir string) *model.Module {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".tf") {
			return &model.Module{
				Name:        filepath.Base(dir),
				Path:        d.relativePath(dir),
				Language:    model.LangHcl,
				ProjectType: model.ProjectTerraformModule,
			}
		}
	}
	return nil
}

// ModuleIDForFile resolves the deepest module containing a file. The
// file path may be absolute or root-relative.
func (d *Detector) ModuleIDForFile(filePath string) string {
	rel := filePath
	if filepath.IsAbs(filePath) {
		r, err := filepath.Rel(d.rootPath, filePath)
		if err != nil {
			return ""
		}
		rel = r
	}
	rel = filepath.ToSlash(rel)

	var best *model.Module
	bestDepth := -1
	for _, m := range d.modules {
		if m.Path != "" && !strings.HasPrefix(rel, m.Path+"/") && rel != m.Path {
			continue
		}
		depth := 0
		if m.Path != "" {
			depth = strings.Count(m.Path, "/") + 1
		}
		if depth > bestDepth {
			bestDepth = depth
			best = m
		}
	}

	if best == nil {
		return ""
	}
	return best.ID
}

func (d *Detector) relativePath(path string) string {
	rel, err := filepath.Rel(d.rootPath, path)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func shouldSkipDir(name string) bool {
	if strings.HasPrefix(name, ".") && name != "." && name != ".." {
		return true
	}
	switch name {
	case "node_modules", "target", "__pycache__", "venv", "vendor", "dist", "build":
		return true
	}
	return false
}

// extractTOMLValue scans for `key = "value"` line by line. Deliberately
// minimal; marker files do not warrant a full TOML parser.
func extractTOMLValue(content, key string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, key+" =") && !strings.HasPrefix(trimmed, key+"=") {
			continue
		}
		if start := strings.Index(trimmed, `"`); start != -1 {
			rest := trimmed[start+1:]
			if end := strings.Index(rest, `"`); end != -1 {
				return rest[:end]
			}
		}
	}
	return ""
}

// extractJSONValue scans for `"key": "value"` line by line.
func extractJSONValue(content, key string) string {
	pattern := `"` + key + `"`
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, pattern) {
			continue
		}
		colon := strings.Index(line, ":")
		if colon == -1 {
			continue
		}
		rest := line[colon+1:]
		if start := strings.Index(rest, `"`); start != -1 {
			rest = rest[start+1:]
			if end := strings.Index(rest, `"`); end != -1 {
				return rest[:end]
			}
		}
	}
	return ""
}
