package gen

import (
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/veralux/pxmkit/internal/platform"
)

// MakefileGen emits the two-tier GNU make build for the unix targets: a
// wrapper Makefile that delegates to the architecture-specific makefile-x64,
// which carries the full source/object/dependency lists and rules.
type MakefileGen struct {
	Module  string
	Profile platform.Profile
}

func (g *MakefileGen) Generate(root string, tree *SourceTree, now time.Time) ([]string, error) {
	dir := filepath.Join(root, string(g.Profile.ID), g.Profile.Toolchain)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	wrapperPath := filepath.Join(dir, "Makefile")
	implPath := filepath.Join(dir, "makefile-x64")

	if err := os.WriteFile(wrapperPath, []byte(g.wrapper(now)), 0o644); err != nil {
		return nil, err
	}
	if err := os.WriteFile(implPath, []byte(g.implementation(root, tree.Sources, now)), 0o644); err != nil {
		return nil, err
	}

	return []string{wrapperPath, implPath}, nil
}

// wrapper is the top-level Makefile; it only forwards to makefile-x64.
func (g *MakefileGen) wrapper(now time.Time) string {
	var sb strings.Builder
	write(&sb, banner(g.Module, g.Profile.Label+"/"+g.Profile.Toolchain, "Release/all", now))
	writeln(&sb)
	writeln(&sb, "#")
	writeln(&sb, "# Targets")
	writeln(&sb, "#")
	writeln(&sb)
	writeln(&sb, ".PHONY: all")
	writeln(&sb, "all: ")
	writeln(&sb, "\t$(MAKE) -f ./makefile-x64 --no-print-directory")
	writeln(&sb)
	writeln(&sb, ".PHONY: clean")
	writeln(&sb, "clean:")
	writeln(&sb, "\t$(MAKE) -f ./makefile-x64 --no-print-directory clean")
	writeln(&sb)
	return sb.String()
}

func (g *MakefileGen) implementation(root string, sources []string, now time.Time) string {
	prof := g.Profile
	artifact := prof.BinaryName(g.Module)
	objDir := filepath.ToSlash(root) + "/" + string(prof.ID) + "/" + prof.Toolchain + "/x64/Release"

	// Object and dependency paths mirror the source tree 1:1.
	srcList := make([]string, len(sources))
	objList := make([]string, len(sources))
	depList := make([]string, len(sources))
	for i, src := range sources {
		stem := strings.TrimSuffix(src, path.Ext(src))
		srcList[i] = "../../src/" + src
		objList[i] = "./x64/Release/src/" + stem + ".o"
		depList[i] = "./x64/Release/src/" + stem + ".d"
	}

	var sb strings.Builder
	write(&sb, banner(g.Module, prof.Label+"/"+prof.Toolchain, "Release/x64", now))
	writeln(&sb)
	writeln(&sb, `OBJ_DIR="`, objDir, `"`)
	writeln(&sb)
	writeln(&sb, ".PHONY: all")
	writeln(&sb, "all: $(OBJ_DIR)/", artifact)
	writeln(&sb)
	fileList(&sb, "Source files", "SRC_FILES", srcList)
	fileList(&sb, "Object files", "OBJ_FILES", objList)
	fileList(&sb, "Dependency files", "DEP_FILES", depList)
	writeln(&sb, "#")
	writeln(&sb, "# Rules")
	writeln(&sb, "#")
	writeln(&sb)
	// Pull in the dependency files of previous builds so unchanged
	// translation units are skipped; a first build has none and proceeds.
	writeln(&sb, "-include $(DEP_FILES)")
	writeln(&sb)
	writeln(&sb, "$(OBJ_DIR)/", artifact, ": $(OBJ_FILES)")
	writeln(&sb, "\tmkdir -p $(OBJ_DIR)")
	writeln(&sb, "\t", prof.Compiler, " ", prof.LinkFlags(g.Module),
		" -o $(OBJ_DIR)/", artifact, " $(OBJ_FILES) ", prof.Libraries)
	writeln(&sb, "\t$(MAKE) -f ./makefile-x64 --no-print-directory post-build")
	writeln(&sb)
	writeln(&sb, ".PHONY: clean")
	writeln(&sb, "clean:")
	writeln(&sb, "\trm -f $(OBJ_FILES) $(DEP_FILES) $(OBJ_DIR)/", artifact)
	writeln(&sb)
	writeln(&sb, ".PHONY: post-build")
	writeln(&sb, "post-build:")
	writeln(&sb, "\tcp $(OBJ_DIR)/", artifact, " $(PCLBINDIR64)")
	writeln(&sb, "\tmkdir -p ../../bin/", string(prof.ID))
	writeln(&sb, "\tcp $(OBJ_DIR)/", artifact, " ../../bin/", string(prof.ID), "/")
	writeln(&sb)
	write(&sb, strings.Join(g.patternRules(sources), "\n"), "\n\n")

	return sb.String()
}

func fileList(sb *strings.Builder, title, varName string, items []string) {
	writeln(sb, "#")
	writeln(sb, "# ", title)
	writeln(sb, "#")
	writeln(sb)
	writeln(sb, varName, "= \\")
	writeln(sb, strings.Join(items, " \\\n"))
	writeln(sb)
}

// patternRules returns one wildcard compilation rule for root-level sources
// followed by one rule per distinct subdirectory, in sorted order.
func (g *MakefileGen) patternRules(sources []string) []string {
	ext := ".cpp"
	if len(sources) > 0 {
		ext = path.Ext(sources[0])
	}

	var subdirs []string
	seen := make(map[string]struct{})
	for _, src := range sources {
		dir := path.Dir(src)
		if dir == "." {
			continue
		}
		if _, ok := seen[dir]; !ok {
			seen[dir] = struct{}{}
			subdirs = append(subdirs, dir)
		}
	}
	slices.Sort(subdirs)

	rules := make([]string, 0, len(subdirs)+1)
	rules = append(rules, g.patternRule("", ext))
	for _, dir := range subdirs {
		rules = append(rules, g.patternRule(dir+"/", ext))
	}
	return rules
}

func (g *MakefileGen) patternRule(subdir, ext string) string {
	var sb strings.Builder
	writeln(&sb, "./x64/Release/src/", subdir, "%.o: ../../src/", subdir, "%", ext)
	writeln(&sb, "\tmkdir -p $(@D)")
	writeln(&sb, "\t", g.Profile.Compiler, " ", g.Profile.CFlags,
		` -MMD -MP -MF"$(@:%.o=%.d)" -o"$@" "$<"`)
	write(&sb, "\t@echo ' '")
	return sb.String()
}
