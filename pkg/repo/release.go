package repo

import (
	"fmt"
	"strings"
)

// FormatRelease renders one Release paragraph per release, in order.
func FormatRelease(releases []Release) string {
	var sb strings.Builder
	for _, r := range releases {
		fmt.Fprintf(&sb, "Origin: %s\n", r.Origin)
		fmt.Fprintf(&sb, "Label: %s\n", r.Label)
		fmt.Fprintf(&sb, "Suite: %s\n", r.Suite)
		fmt.Fprintf(&sb, "Version: %s\n", r.Version)
		fmt.Fprintf(&sb, "Codename: %s\n", r.Codename)
		fmt.Fprintf(&sb, "Architectures: %s\n", r.Architectures)
		fmt.Fprintf(&sb, "Components: %s\n", r.Components)
		fmt.Fprintf(&sb, "Description: %s\n", r.Description)
	}
	return sb.String()
}
