package gen

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/veralux/pxmkit/internal/platform"
)

func newVCProjectGen(t *testing.T) *VCProjectGen {
	t.Helper()
	prof, err := platform.Lookup(platform.Windows)
	require.NoError(t, err)
	return &VCProjectGen{Module: "Sandbox", Profile: prof}
}

var guidRe = regexp.MustCompile(`\{[0-9A-Fa-f]{8}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{12}\}`)

// TestVCProjectGenerateLayout checks that a windows run writes the project
// and filters documents side by side under <root>/windows/vc17/.
func TestVCProjectGenerateLayout(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	g := newVCProjectGen(t)
	tree := &SourceTree{
		Sources: []string{"Sandbox.cpp"},
		Headers: []string{"Sandbox.h"},
	}

	files, err := g.Generate(root, tree, time.Now())
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(root, "windows", "vc17", "Sandbox.vcxproj"),
		filepath.Join(root, "windows", "vc17", "Sandbox.vcxproj.filters"),
	}, files)

	for _, f := range files {
		out, err := os.ReadFile(f)
		require.NoError(t, err)
		text := string(out)
		require.True(t, strings.HasPrefix(text, `<?xml version="1.0" encoding="UTF-8"?>`))
		require.Contains(t, text, "<!--")
		require.Contains(t, text, "# Project id ...... Sandbox")
		require.Contains(t, text, `xmlns="http://schemas.microsoft.com/developer/msbuild/2003"`)
	}
}

// TestVCProjectItemsListedOnce checks every discovered file appears exactly
// once in the project document and exactly once in the filters document,
// each under its filter group with backslash paths.
func TestVCProjectItemsListedOnce(t *testing.T) {
	t.Parallel()

	g := newVCProjectGen(t)
	tree := &SourceTree{
		Sources:   []string{"Sandbox.cpp", "util/Helpers.cpp"},
		Headers:   []string{"Sandbox.h"},
		Resources: []string{"rsc/icons/Sandbox.svg"},
	}
	now := time.Now()

	project, err := g.marshalDocument(g.projectDocument(tree), now)
	require.NoError(t, err)
	filters, err := g.marshalDocument(g.filtersDocument(tree), now)
	require.NoError(t, err)

	cases := []struct{ element, include string }{
		{"ClCompile", `..\..\src\Sandbox.cpp`},
		{"ClCompile", `..\..\src\util\Helpers.cpp`},
		{"ClInclude", `..\..\src\Sandbox.h`},
		{"None", `..\..\rsc\icons\Sandbox.svg`},
	}
	for _, tc := range cases {
		require.Equal(t, 1, strings.Count(string(project),
			`<`+tc.element+` Include="`+tc.include+`"`), "project: %s", tc.include)
		require.Equal(t, 1, strings.Count(string(filters),
			`<`+tc.element+` Include="`+tc.include+`"`), "filters: %s", tc.include)
	}

	require.Contains(t, string(filters), "<Filter>Source Files</Filter>")
	require.Contains(t, string(filters), "<Filter>Header Files</Filter>")
	require.Contains(t, string(filters), "<Filter>Image Files</Filter>")
	require.NotContains(t, string(project), "<Filter>")
}

// TestVCProjectGuids checks the project GUID is uppercase with braces, the
// filter GUIDs parse, and that two runs never repeat an identifier.
func TestVCProjectGuids(t *testing.T) {
	t.Parallel()

	g := newVCProjectGen(t)
	tree := &SourceTree{Sources: []string{"Sandbox.cpp"}}
	now := time.Now()

	collect := func() []string {
		project, err := g.marshalDocument(g.projectDocument(tree), now)
		require.NoError(t, err)
		filters, err := g.marshalDocument(g.filtersDocument(tree), now)
		require.NoError(t, err)

		projectGuids := guidRe.FindAllString(string(project), -1)
		require.Len(t, projectGuids, 1)
		require.Equal(t, strings.ToUpper(projectGuids[0]), projectGuids[0])

		filterGuids := guidRe.FindAllString(string(filters), -1)
		require.Len(t, filterGuids, 3)

		return append(projectGuids, filterGuids...)
	}

	seen := make(map[string]struct{})
	for _, guid := range append(collect(), collect()...) {
		_, dup := seen[guid]
		require.False(t, dup, "duplicate identifier %s", guid)
		seen[guid] = struct{}{}
	}
}

// TestVCProjectConfigurations checks the Release/Debug split: optimization
// and runtime settings must not bleed between the two configurations.
func TestVCProjectConfigurations(t *testing.T) {
	t.Parallel()

	g := newVCProjectGen(t)

	release := g.itemDefinitionGroup(releaseCondition)
	require.Equal(t, "MaxSpeed", release.ClCompile.Optimization)
	require.Equal(t, "MultiThreadedDLL", release.ClCompile.RuntimeLibrary)
	require.Contains(t, release.ClCompile.PreprocessorDefinitions, "_NDEBUG")
	require.Empty(t, release.ClCompile.DebugInformationFormat)
	require.Equal(t, "false", release.Link.GenerateDebugInformation)
	require.Equal(t, "UseLinkTimeCodeGeneration", release.Link.LinkTimeCodeGeneration)

	debug := g.itemDefinitionGroup(debugCondition)
	require.Equal(t, "Disabled", debug.ClCompile.Optimization)
	require.Equal(t, "MultiThreadedDebugDLL", debug.ClCompile.RuntimeLibrary)
	require.Contains(t, debug.ClCompile.PreprocessorDefinitions, "_DEBUG")
	require.Equal(t, "ProgramDatabase", debug.ClCompile.DebugInformationFormat)
	require.Equal(t, "true", debug.Link.GenerateDebugInformation)
	require.Empty(t, debug.Link.LinkTimeCodeGeneration)

	for _, def := range []vcxItemDefinitionGroup{release, debug} {
		require.Equal(t, `$(PCLBINDIR64)\Sandbox-pxm.dll`, def.Link.OutputFile)
		require.Contains(t, def.Link.AdditionalDependencies, "PCL-pxi.lib")
		require.Contains(t, def.PostBuildEvent.Command, `xcopy /Y "$(OutDir)Sandbox-pxm.dll" "..\..\bin\windows\"`)
	}
}

// TestVCProjectEmptyGroupsValid ensures a module with no headers or
// resources still yields well-formed documents.
func TestVCProjectEmptyGroupsValid(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	g := newVCProjectGen(t)
	tree := &SourceTree{Sources: []string{"Sandbox.cpp"}}

	files, err := g.Generate(root, tree, time.Now())
	require.NoError(t, err)
	require.Len(t, files, 2)

	project, err := os.ReadFile(files[0])
	require.NoError(t, err)
	require.NotContains(t, string(project), "<ClInclude")
	require.Contains(t, string(project), `<ClCompile Include="..\..\src\Sandbox.cpp"`)
}

// TestVCProjectToolsVersions pins the ToolsVersion split between the project
// document and the filters document.
func TestVCProjectToolsVersions(t *testing.T) {
	t.Parallel()

	g := newVCProjectGen(t)
	tree := &SourceTree{Sources: []string{"Sandbox.cpp"}}

	require.Equal(t, "17.0", g.projectDocument(tree).ToolsVersion)
	require.Equal(t, "4.0", g.filtersDocument(tree).ToolsVersion)
}
