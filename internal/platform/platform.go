// Package platform holds the static build profiles for every target the
// PixInsight core distribution supports. Profiles are fixed at compile time;
// there is no fallback for an unknown identifier.
package platform

import (
	"errors"
	"fmt"
	"strings"
)

// ID identifies one supported build target.
type ID string

const (
	Linux   ID = "linux"
	MacOSX  ID = "macosx"
	Windows ID = "windows"
)

var ErrUnknownPlatform = errors.New("unknown platform")

// All returns the supported platforms in their canonical order.
func All() []ID {
	return []ID{Linux, MacOSX, Windows}
}

// Parse validates a platform name given on the command line.
func Parse(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := profiles[id]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
	}
	return id, nil
}

// Profile bundles every platform-specific setting used by the build-file
// generators and the release packager. The flag strings reference PCL
// environment variables ($(PCLINCDIR), $(PCLLIBDIR64), ...) that the build
// tool resolves at compile time.
type Profile struct {
	ID        ID
	Label     string // platform label in generated file banners
	Toolchain string // toolchain directory name under <root>/<platform>/
	Compiler  string // compiler driver for unix makefiles
	CFlags    string // full compilation flag string
	LDFlags   string // linker flag string, may contain a {module} placeholder
	Libraries string // unix: -l list; windows: ;-separated .lib list
	Defines   string // preprocessor defines for the Windows project documents
	BinaryExt string // extension of the produced dynamic library
}

// LinkFlags returns the linker flag string with the module name expanded.
func (p Profile) LinkFlags(module string) string {
	return strings.ReplaceAll(p.LDFlags, "{module}", module)
}

// BinaryName returns the module's dynamic-library filename on this platform.
func (p Profile) BinaryName(module string) string {
	return module + "-pxm." + p.BinaryExt
}

var profiles = map[ID]Profile{
	Linux: {
		ID:        Linux,
		Label:     "Linux",
		Toolchain: "g++",
		Compiler:  "g++",
		CFlags: `-c -pipe -pthread -m64 -fPIC -D_REENTRANT -D__PCL_LINUX ` +
			`-D__PCL_AVX2 -D__PCL_FMA -I"$(PCLINCDIR)" -I"$(PCLSRCDIR)/3rdparty" ` +
			`-mavx2 -mfma -minline-all-stringops -O3 -ffunction-sections -fdata-sections ` +
			`-ffast-math -fvisibility=hidden -fvisibility-inlines-hidden -fnon-call-exceptions ` +
			`-std=c++17 -Wall -Wno-parentheses`,
		LDFlags: `-m64 -fPIC -pthread -Wl,-fuse-ld=gold -Wl,--enable-new-dtags ` +
			`-Wl,-z,noexecstack -Wl,-O1 -Wl,--gc-sections -s -shared ` +
			`-L"$(PCLLIBDIR64)" -L"$(PCLBINDIR64)/lib"`,
		Libraries: `-lpthread -lPCL-pxi -llz4-pxi -lzstd-pxi -lzlib-pxi ` +
			`-lRFC6234-pxi -llcms-pxi -lcminpack-pxi`,
		BinaryExt: "so",
	},
	MacOSX: {
		ID:        MacOSX,
		Label:     "MacOSX",
		Toolchain: "g++",
		Compiler:  "clang++",
		CFlags: `-c -pipe -pthread -arch x86_64 -fPIC -isysroot ` +
			`/Applications/Xcode.app/Contents/Developer/Platforms/MacOSX.platform/Developer/SDKs/MacOSX.sdk ` +
			`-mmacosx-version-min=12 -D_REENTRANT -D__PCL_MACOSX ` +
			`-I"$(PCLINCDIR)" -I"$(PCLSRCDIR)/3rdparty" -msse4.2 ` +
			`-minline-all-stringops -O3 -ffunction-sections -fdata-sections -ffast-math ` +
			`-fvisibility=hidden -fvisibility-inlines-hidden -std=c++17 -stdlib=libc++ ` +
			`-Wall -Wno-parentheses -Wno-extern-c-compat`,
		LDFlags: `-arch x86_64 -fPIC -headerpad_max_install_names ` +
			`-Wl,-syslibroot,/Applications/Xcode.app/Contents/Developer/Platforms/MacOSX.platform/Developer/SDKs/MacOSX.sdk ` +
			`-mmacosx-version-min=12 -stdlib=libc++ -Wl,-dead_strip -dynamiclib ` +
			`-install_name @executable_path/{module}-pxm.dylib -L"$(PCLLIBDIR64)"`,
		Libraries: `-framework AppKit -lpthread -lPCL-pxi -llz4-pxi -lzstd-pxi ` +
			`-lzlib-pxi -lRFC6234-pxi -llcms-pxi -lcminpack-pxi`,
		BinaryExt: "dylib",
	},
	Windows: {
		ID:        Windows,
		Label:     "Windows",
		Toolchain: "vc17",
		Defines: "WIN32;WIN64;_WINDOWS;UNICODE;__PCL_WINDOWS;" +
			"__PCL_NO_WIN32_MINIMUM_VERSIONS;__PCL_AVX2;__PCL_FMA",
		Libraries: "PCL-pxi.lib;lz4-pxi.lib;zstd-pxi.lib;zlib-pxi.lib;RFC6234-pxi.lib;" +
			"lcms-pxi.lib;cminpack-pxi.lib;kernel32.lib;user32.lib;gdi32.lib;" +
			"winspool.lib;comdlg32.lib;advapi32.lib;shell32.lib;ole32.lib;" +
			"oleaut32.lib;uuid.lib;odbc32.lib;odbccp32.lib;userenv.lib;imm32.lib;" +
			"shlwapi.lib;ws2_32.lib;wldap32.lib;mscms.lib;winmm.lib;crypt32.lib;" +
			"normaliz.lib",
		BinaryExt: "dll",
	},
}

// Lookup resolves a platform identifier to its profile.
func Lookup(id ID) (Profile, error) {
	p, ok := profiles[id]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownPlatform, id)
	}
	return p, nil
}
