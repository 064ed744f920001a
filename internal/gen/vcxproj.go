package gen

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veralux/pxmkit/internal/platform"
)

const msbuildXMLNS = "http://schemas.microsoft.com/developer/msbuild/2003"

// Filter group names used by both the project and the filters document.
const (
	filterSources   = "Source Files"
	filterHeaders   = "Header Files"
	filterResources = "Image Files"
)

//
// structures for .vcxproj / .vcxproj.filters
//
// Document children are collected in an ordered []any slice; each element
// type names itself through its XMLName field so MSBuild's exact block
// ordering survives serialization.
//

type vcxDoc struct {
	XMLName        xml.Name `xml:"Project"`
	DefaultTargets string   `xml:"DefaultTargets,attr"`
	ToolsVersion   string   `xml:"ToolsVersion,attr"`
	XMLNS          string   `xml:"xmlns,attr"`
	Elements       []any
}

type vcxConfigurationsGroup struct {
	XMLName        xml.Name                  `xml:"ItemGroup"`
	Label          string                    `xml:"Label,attr"`
	Configurations []vcxProjectConfiguration `xml:"ProjectConfiguration"`
}

type vcxProjectConfiguration struct {
	Include       string `xml:"Include,attr"`
	Configuration string `xml:"Configuration"`
	Platform      string `xml:"Platform"`
}

type vcxGlobalsGroup struct {
	XMLName       xml.Name `xml:"PropertyGroup"`
	Label         string   `xml:"Label,attr"`
	ProjectGuid   string   `xml:"ProjectGuid"`
	RootNamespace string   `xml:"RootNamespace"`
	Keyword       string   `xml:"Keyword"`
}

type vcxConfigGroup struct {
	XMLName                  xml.Name `xml:"PropertyGroup"`
	Condition                string   `xml:"Condition,attr"`
	Label                    string   `xml:"Label,attr"`
	ConfigurationType        string   `xml:"ConfigurationType"`
	CharacterSet             string   `xml:"CharacterSet"`
	WholeProgramOptimization string   `xml:"WholeProgramOptimization,omitempty"`
	PlatformToolset          string   `xml:"PlatformToolset"`
}

type vcxUserMacrosGroup struct {
	XMLName xml.Name `xml:"PropertyGroup"`
	Label   string   `xml:"Label,attr"`
}

// vcxProperty is a conditional property; its element name is carried in
// XMLName so OutDir/IntDir/TargetName entries can interleave per
// configuration.
type vcxProperty struct {
	XMLName   xml.Name
	Condition string `xml:"Condition,attr"`
	Value     string `xml:",chardata"`
}

type vcxPathsGroup struct {
	XMLName            xml.Name `xml:"PropertyGroup"`
	ProjectFileVersion string   `xml:"_ProjectFileVersion"`
	Properties         []vcxProperty
}

type vcxImport struct {
	XMLName   xml.Name `xml:"Import"`
	Project   string   `xml:"Project,attr"`
	Condition string   `xml:"Condition,attr,omitempty"`
	Label     string   `xml:"Label,attr,omitempty"`
}

type vcxImportGroup struct {
	XMLName   xml.Name    `xml:"ImportGroup"`
	Condition string      `xml:"Condition,attr,omitempty"`
	Label     string      `xml:"Label,attr,omitempty"`
	Imports   []vcxImport `xml:"Import,omitempty"`
}

type vcxItemDefinitionGroup struct {
	XMLName        xml.Name          `xml:"ItemDefinitionGroup"`
	Condition      string            `xml:"Condition,attr"`
	Midl           vcxMidl           `xml:"Midl"`
	ClCompile      vcxClCompileDef   `xml:"ClCompile"`
	Link           vcxLinkDef        `xml:"Link"`
	PostBuildEvent vcxPostBuildEvent `xml:"PostBuildEvent"`
}

type vcxMidl struct {
	TargetEnvironment string `xml:"TargetEnvironment"`
}

// vcxClCompileDef holds a superset of the Release and Debug compiler
// settings; fields absent from a configuration carry omitempty. Fields
// without omitempty are emitted as empty elements on purpose
// (PrecompiledHeader, DebugInformationFormat in Release).
type vcxClCompileDef struct {
	Optimization                 string `xml:"Optimization"`
	InlineFunctionExpansion      string `xml:"InlineFunctionExpansion,omitempty"`
	IntrinsicFunctions           string `xml:"IntrinsicFunctions,omitempty"`
	FavorSizeOrSpeed             string `xml:"FavorSizeOrSpeed,omitempty"`
	OmitFramePointers            string `xml:"OmitFramePointers,omitempty"`
	WholeProgramOptimization     string `xml:"WholeProgramOptimization,omitempty"`
	AdditionalIncludeDirectories string `xml:"AdditionalIncludeDirectories"`
	PreprocessorDefinitions      string `xml:"PreprocessorDefinitions"`
	StringPooling                string `xml:"StringPooling,omitempty"`
	ExceptionHandling            string `xml:"ExceptionHandling"`
	MinimalRebuild               string `xml:"MinimalRebuild,omitempty"`
	BasicRuntimeChecks           string `xml:"BasicRuntimeChecks,omitempty"`
	RuntimeLibrary               string `xml:"RuntimeLibrary"`
	BufferSecurityCheck          string `xml:"BufferSecurityCheck,omitempty"`
	FunctionLevelLinking         string `xml:"FunctionLevelLinking,omitempty"`
	FloatingPointModel           string `xml:"FloatingPointModel,omitempty"`
	PrecompiledHeader            string `xml:"PrecompiledHeader"`
	WarningLevel                 string `xml:"WarningLevel"`
	DebugInformationFormat       string `xml:"DebugInformationFormat"`
	MultiProcessorCompilation    string `xml:"MultiProcessorCompilation"`
	RuntimeTypeInfo              string `xml:"RuntimeTypeInfo"`
	EnableEnhancedInstructionSet string `xml:"EnableEnhancedInstructionSet"`
	LanguageStandard             string `xml:"LanguageStandard"`
	AdditionalOptions            string `xml:"AdditionalOptions"`
}

type vcxLinkDef struct {
	AdditionalDependencies        string `xml:"AdditionalDependencies"`
	OutputFile                    string `xml:"OutputFile"`
	AdditionalLibraryDirectories  string `xml:"AdditionalLibraryDirectories"`
	ModuleDefinitionFile          string `xml:"ModuleDefinitionFile"`
	DelayLoadDLLs                 string `xml:"DelayLoadDLLs,omitempty"`
	SubSystem                     string `xml:"SubSystem"`
	LargeAddressAware             string `xml:"LargeAddressAware"`
	LinkTimeCodeGeneration        string `xml:"LinkTimeCodeGeneration,omitempty"`
	SupportUnloadOfDelayLoadedDLL string `xml:"SupportUnloadOfDelayLoadedDLL,omitempty"`
	ImportLibrary                 string `xml:"ImportLibrary"`
	TargetMachine                 string `xml:"TargetMachine"`
	GenerateDebugInformation      string `xml:"GenerateDebugInformation"`
}

type vcxPostBuildEvent struct {
	Command string `xml:"Command"`
}

// vcxItem is a project item; XMLName selects ClCompile/ClInclude/None.
type vcxItem struct {
	XMLName xml.Name
	Include string `xml:"Include,attr"`
}

type vcxItemGroup struct {
	XMLName xml.Name `xml:"ItemGroup"`
	Items   []vcxItem
}

type vcxFilter struct {
	Include          string `xml:"Include,attr"`
	UniqueIdentifier string `xml:"UniqueIdentifier"`
}

type vcxFilterGroup struct {
	XMLName xml.Name    `xml:"ItemGroup"`
	Filters []vcxFilter `xml:"Filter"`
}

type vcxFilteredItem struct {
	XMLName xml.Name
	Include string `xml:"Include,attr"`
	Filter  string `xml:"Filter"`
}

type vcxFilteredGroup struct {
	XMLName xml.Name `xml:"ItemGroup"`
	Items   []vcxFilteredItem
}

//
// generator
//

// VCProjectGen emits the Visual Studio project descriptor and its companion
// filters document. Project and filter identifiers are freshly generated on
// every invocation; only their shape is stable.
type VCProjectGen struct {
	Module  string
	Profile platform.Profile
}

func (g *VCProjectGen) Generate(root string, tree *SourceTree, now time.Time) ([]string, error) {
	dir := filepath.Join(root, string(g.Profile.ID), g.Profile.Toolchain)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	projectPath := filepath.Join(dir, g.Module+".vcxproj")
	filtersPath := projectPath + ".filters"

	project, err := g.marshalDocument(g.projectDocument(tree), now)
	if err != nil {
		return nil, err
	}
	filters, err := g.marshalDocument(g.filtersDocument(tree), now)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(projectPath, project, 0o644); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filtersPath, filters, 0o644); err != nil {
		return nil, err
	}

	return []string{projectPath, filtersPath}, nil
}

// marshalDocument serializes a document with the XML declaration and the
// generator banner as a leading comment.
func (g *VCProjectGen) marshalDocument(doc any, now time.Time) ([]byte, error) {
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	write(&sb, xml.Header)
	writeln(&sb, "<!--")
	write(&sb, banner(g.Module, g.Profile.Label+"/"+g.Profile.Toolchain, "", now))
	writeln(&sb, "-->")
	write(&sb, string(out))
	writeln(&sb)
	return []byte(sb.String()), nil
}

const (
	releaseCondition = "'$(Configuration)|$(Platform)'=='Release|x64'"
	debugCondition   = "'$(Configuration)|$(Platform)'=='Debug|x64'"
)

func (g *VCProjectGen) projectDocument(tree *SourceTree) *vcxDoc {
	userProps := vcxImport{
		Project:   `$(UserRootDir)\Microsoft.Cpp.$(Platform).user.props`,
		Condition: `exists('$(UserRootDir)\Microsoft.Cpp.$(Platform).user.props')`,
		Label:     "LocalAppDataPlatform",
	}

	elements := []any{
		vcxConfigurationsGroup{
			Label: "ProjectConfigurations",
			Configurations: []vcxProjectConfiguration{
				{Include: "Release|x64", Configuration: "Release", Platform: "x64"},
				{Include: "Debug|x64", Configuration: "Debug", Platform: "x64"},
			},
		},
		vcxGlobalsGroup{
			Label:         "Globals",
			ProjectGuid:   "{" + strings.ToUpper(uuid.New().String()) + "}",
			RootNamespace: "PixInsight",
			Keyword:       "Win32Proj",
		},
		vcxImport{Project: `$(VCTargetsPath)Microsoft.Cpp.Default.props`},
		vcxConfigGroup{
			Condition:                releaseCondition,
			Label:                    "Configuration",
			ConfigurationType:        "DynamicLibrary",
			CharacterSet:             "Unicode",
			WholeProgramOptimization: "true",
			PlatformToolset:          "v143",
		},
		vcxConfigGroup{
			Condition:         debugCondition,
			Label:             "Configuration",
			ConfigurationType: "DynamicLibrary",
			CharacterSet:      "Unicode",
			PlatformToolset:   "v143",
		},
		vcxImport{Project: `$(VCTargetsPath)\Microsoft.Cpp.props`},
		vcxImportGroup{Label: "ExtensionSettings"},
		vcxImportGroup{Condition: releaseCondition, Label: "PropertySheets", Imports: []vcxImport{userProps}},
		vcxImportGroup{Condition: debugCondition, Label: "PropertySheets", Imports: []vcxImport{userProps}},
		vcxUserMacrosGroup{Label: "UserMacros"},
		g.pathsGroup(),
		g.itemDefinitionGroup(releaseCondition),
		g.itemDefinitionGroup(debugCondition),
		itemGroup("ClCompile", tree.Sources, `..\..\src\`),
		itemGroup("ClInclude", tree.Headers, `..\..\src\`),
		itemGroup("None", tree.Resources, `..\..\`),
		vcxImport{Project: `$(VCTargetsPath)\Microsoft.Cpp.targets`},
		vcxImportGroup{Label: "ExtensionTargets"},
	}

	return &vcxDoc{
		DefaultTargets: "Build",
		ToolsVersion:   "17.0",
		XMLNS:          msbuildXMLNS,
		Elements:       elements,
	}
}

func (g *VCProjectGen) pathsGroup() vcxPathsGroup {
	targetName := g.Module + "-pxm"
	prop := func(name, condition, value string) vcxProperty {
		return vcxProperty{XMLName: xml.Name{Local: name}, Condition: condition, Value: value}
	}
	return vcxPathsGroup{
		ProjectFileVersion: "10.0.40219.1",
		Properties: []vcxProperty{
			prop("OutDir", releaseCondition, `$(PCLBINDIR64)\`),
			prop("IntDir", releaseCondition, `$(Platform)\$(Configuration)\`),
			prop("OutDir", debugCondition, `$(PCLBINDIR64)\`),
			prop("IntDir", debugCondition, `$(Platform)\$(Configuration)\`),
			prop("TargetName", releaseCondition, targetName),
			prop("TargetName", debugCondition, targetName),
		},
	}
}

func (g *VCProjectGen) itemDefinitionGroup(condition string) vcxItemDefinitionGroup {
	release := condition == releaseCondition

	compile := vcxClCompileDef{
		AdditionalIncludeDirectories: `$(PCLINCDIR);$(PCLSRCDIR)\3rdparty;%(AdditionalIncludeDirectories)`,
		ExceptionHandling:            "Async",
		WarningLevel:                 "Level3",
		MultiProcessorCompilation:    "true",
		RuntimeTypeInfo:              "true",
		EnableEnhancedInstructionSet: "AdvancedVectorExtensions2",
		LanguageStandard:             "stdcpp17",
		AdditionalOptions:            "/Zc:__cplusplus /permissive- %(AdditionalOptions)",
	}
	link := vcxLinkDef{
		AdditionalDependencies:       g.Profile.Libraries + ";%(AdditionalDependencies)",
		OutputFile:                   `$(PCLBINDIR64)\` + g.Profile.BinaryName(g.Module),
		AdditionalLibraryDirectories: `$(PCLLIBDIR64);%(AdditionalLibraryDirectories)`,
		SubSystem:                    "Windows",
		LargeAddressAware:            "true",
		ImportLibrary:                `$(Platform)\$(Configuration)\$(ProjectName).lib`,
		TargetMachine:                "MachineX64",
	}

	if release {
		compile.Optimization = "MaxSpeed"
		compile.InlineFunctionExpansion = "AnySuitable"
		compile.IntrinsicFunctions = "true"
		compile.FavorSizeOrSpeed = "Speed"
		compile.OmitFramePointers = "true"
		compile.WholeProgramOptimization = "true"
		compile.PreprocessorDefinitions = g.Profile.Defines + ";_NDEBUG;%(PreprocessorDefinitions)"
		compile.StringPooling = "true"
		compile.RuntimeLibrary = "MultiThreadedDLL"
		compile.BufferSecurityCheck = "false"
		compile.FunctionLevelLinking = "false"
		compile.FloatingPointModel = "Fast"

		link.DelayLoadDLLs = "%(DelayLoadDLLs)"
		link.LinkTimeCodeGeneration = "UseLinkTimeCodeGeneration"
		link.SupportUnloadOfDelayLoadedDLL = "true"
		link.GenerateDebugInformation = "false"
	} else {
		compile.Optimization = "Disabled"
		compile.PreprocessorDefinitions = g.Profile.Defines + ";_DEBUG;%(PreprocessorDefinitions)"
		compile.MinimalRebuild = "true"
		compile.BasicRuntimeChecks = "EnableFastChecks"
		compile.RuntimeLibrary = "MultiThreadedDebugDLL"
		compile.DebugInformationFormat = "ProgramDatabase"

		link.GenerateDebugInformation = "true"
	}

	return vcxItemDefinitionGroup{
		Condition:      condition,
		Midl:           vcxMidl{TargetEnvironment: "X64"},
		ClCompile:      compile,
		Link:           link,
		PostBuildEvent: vcxPostBuildEvent{Command: g.postBuildCommand()},
	}
}

func (g *VCProjectGen) postBuildCommand() string {
	return `if not exist "..\..\bin\windows" mkdir "..\..\bin\windows"` + "\n" +
		`xcopy /Y "$(OutDir)` + g.Profile.BinaryName(g.Module) + `" "..\..\bin\windows\"`
}

func (g *VCProjectGen) filtersDocument(tree *SourceTree) *vcxDoc {
	filterGUID := func() string { return "{" + uuid.New().String() + "}" }

	elements := []any{
		vcxFilterGroup{
			Filters: []vcxFilter{
				{Include: filterSources, UniqueIdentifier: filterGUID()},
				{Include: filterHeaders, UniqueIdentifier: filterGUID()},
				{Include: filterResources, UniqueIdentifier: filterGUID()},
			},
		},
		filteredGroup("ClCompile", filterSources, tree.Sources, `..\..\src\`),
		filteredGroup("ClInclude", filterHeaders, tree.Headers, `..\..\src\`),
		filteredGroup("None", filterResources, tree.Resources, `..\..\`),
	}

	return &vcxDoc{
		DefaultTargets: "Build",
		ToolsVersion:   "4.0",
		XMLNS:          msbuildXMLNS,
		Elements:       elements,
	}
}

// toWindows rewrites the scanner's forward-slash paths to the host
// convention used by both Windows documents.
func toWindows(p string) string {
	return strings.ReplaceAll(p, "/", `\`)
}

func itemGroup(element string, paths []string, prefix string) vcxItemGroup {
	items := make([]vcxItem, 0, len(paths))
	for _, p := range paths {
		items = append(items, vcxItem{
			XMLName: xml.Name{Local: element},
			Include: prefix + toWindows(p),
		})
	}
	return vcxItemGroup{Items: items}
}

func filteredGroup(element, filter string, paths []string, prefix string) vcxFilteredGroup {
	items := make([]vcxFilteredItem, 0, len(paths))
	for _, p := range paths {
		items = append(items, vcxFilteredItem{
			XMLName: xml.Name{Local: element},
			Include: prefix + toWindows(p),
			Filter:  filter,
		})
	}
	return vcxFilteredGroup{Items: items}
}
