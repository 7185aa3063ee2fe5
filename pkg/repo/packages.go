package repo

import (
	"fmt"
	"strings"
)

// Architecture is the only architecture this repository publishes.
const Architecture = "iphoneos-arm"

// FormatPackages renders a Packages index. Each stanza is terminated by an
// empty line. Invisible packages are never listed.
func FormatPackages(packages []Package, baseURL string) string {
	var sb strings.Builder
	for _, p := range packages {
		if !p.Visible {
			continue
		}
		writePackage(&sb, p, baseURL)
	}
	return sb.String()
}

func writePackage(sb *strings.Builder, p Package, baseURL string) {
	fmt.Fprintf(sb, "Package: %s\n", p.PackageID)
	fmt.Fprintf(sb, "Version: %s\n", p.Version)
	fmt.Fprintf(sb, "Section: %s\n", p.Section)
	fmt.Fprintf(sb, "Maintainer: %s\n", p.DeveloperName)
	fmt.Fprintf(sb, "Depends: %s\n", p.Depends)
	fmt.Fprintf(sb, "Architecture: %s\n", Architecture)
	fmt.Fprintf(sb, "Filename: %s\n", DebURL(baseURL, p))
	fmt.Fprintf(sb, "Size: %d\n", p.VersionSize)
	fmt.Fprintf(sb, "SHA256: %s\n", p.VersionHash)
	fmt.Fprintf(sb, "Description: %s\n", p.ShortDescription)
	fmt.Fprintf(sb, "Name: %s\n", p.Name)
	fmt.Fprintf(sb, "Author: %s\n", p.DeveloperName)
	fmt.Fprintf(sb, "SileoDepiction: %s/sileodepiction/%s\n", baseURL, p.PackageID)
	fmt.Fprintf(sb, "Depiction: %s/depiction/%s\n", baseURL, p.PackageID)
	if p.Commercial() {
		sb.WriteString("Tag: cydia::commercial\n")
	}
	fmt.Fprintf(sb, "Icon: %s\n\n", p.Icon)
}

// DebURL is where clients download the package's .deb.
func DebURL(baseURL string, p Package) string {
	return fmt.Sprintf("%s/debs/%s_%s_%s.deb", baseURL, p.Name, p.Version, Architecture)
}
