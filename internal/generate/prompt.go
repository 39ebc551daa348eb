package generate

import (
	"fmt"
	"strings"

	"creative-automation/internal/variant"
)

var variantComposition = map[variant.Variant][]string{
	variant.Square: {
		"Centered hero composition for feed placements",
		"Product fills roughly half of the frame",
		"Keep the lower third calm: a logo and headline are added later",
	},
	variant.Landscape: {
		"Wide banner framing, product on the left or center-left",
		"Environmental context extends to the right",
		"Keep the lower right corner uncluttered for branding",
	},
	variant.Portrait: {
		"Vertical story framing, product in the upper two thirds",
		"Use vertical negative space for full-screen placements",
		"Keep the bottom band uncluttered for headline and logo",
	},
}

// BuildPrompt renders a provider-agnostic image prompt for one asset.
func BuildPrompt(req Request) string {
	spec := req.Variant.Spec()

	var b strings.Builder
	b.Grow(1024)

	b.WriteString("TASK: Professional product photography for a localized advertising campaign.\n\n")

	b.WriteString("SUBJECT:\n")
	b.WriteString("- Product: " + strings.TrimSpace(req.Product) + "\n")
	if a := strings.TrimSpace(req.Audience); a != "" {
		b.WriteString("- Target audience: " + a + "\n")
	}
	if m := strings.TrimSpace(req.Message); m != "" {
		b.WriteString("- Campaign message (mood only, do not render as text): " + m + "\n")
	}
	if r := strings.TrimSpace(req.Region); r != "" {
		b.WriteString("- Market: " + r + "\n")
	}
	if c := strings.TrimSpace(req.Culture); c != "" {
		b.WriteString("- Regional setting: " + c + "\n")
	}
	b.WriteString("\n")

	b.WriteString("OUTPUT SPEC:\n")
	b.WriteString(fmt.Sprintf("- Aspect ratio: %s (%dx%d).\n", spec.Ratio, spec.Width, spec.Height))
	b.WriteString("- Full-bleed: no borders, frames or empty edges.\n\n")

	b.WriteString("TECHNICAL SPECS:\n")
	writeSection(&b, "Composition", variantComposition[req.Variant])
	writeSection(&b, "Lighting", []string{"Studio lighting", "Soft key with gentle rim light", "Natural shadow falloff"})
	writeSection(&b, "Quality", []string{"High quality commercial photography", "Clean background", "Tack-sharp product detail"})
	writeSection(&b, "Restrictions", []string{"No text, captions or watermarks", "No invented logos or brand marks"})

	return strings.TrimSpace(b.String())
}

func writeSection(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString("- " + title + ":\n")
	for _, line := range lines {
		b.WriteString("  - " + line + "\n")
	}
}
