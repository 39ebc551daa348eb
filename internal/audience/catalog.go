// Package audience is the fixed catalog of target audiences offered to users
// who would rather pick than type.
package audience

import "strings"

type Option struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	AgeGroup    string   `json:"age_group,omitempty"`
	Gender      string   `json:"gender,omitempty"`
	Interests   []string `json:"interests"`
	Category    string   `json:"category"`
}

const (
	CategoryDemographics = "Demographics"
	CategoryProfessions  = "Professions"
	CategoryInterests    = "Interests"
)

var options = []Option{
	{ID: "young_adults", Label: "Young Adults (18-24)", Description: "College students and young professionals", AgeGroup: "18-24", Interests: []string{"technology", "social media", "entertainment"}, Category: CategoryDemographics},
	{ID: "millennials", Label: "Millennials (25-34)", Description: "Early career professionals", AgeGroup: "25-34", Interests: []string{"technology", "career", "travel", "fitness"}, Category: CategoryDemographics},
	{ID: "gen_x", Label: "Gen X (35-44)", Description: "Established professionals and parents", AgeGroup: "35-44", Interests: []string{"family", "career", "home improvement", "health"}, Category: CategoryDemographics},
	{ID: "boomers", Label: "Baby Boomers (45-64)", Description: "Experienced professionals and empty nesters", AgeGroup: "45-64", Interests: []string{"retirement planning", "health", "travel", "hobbies"}, Category: CategoryDemographics},
	{ID: "male_professionals", Label: "Male Professionals", Description: "Working men across various industries", Gender: "male", Interests: []string{"career", "technology", "sports", "tools"}, Category: CategoryDemographics},
	{ID: "female_professionals", Label: "Female Professionals", Description: "Working women across various industries", Gender: "female", Interests: []string{"career", "workplace equality", "health", "work-life balance"}, Category: CategoryDemographics},

	{ID: "construction_workers", Label: "Construction Workers", Description: "Skilled tradespeople in construction industry", Interests: []string{"safety", "tools", "construction", "workplace safety"}, Category: CategoryProfessions},
	{ID: "healthcare_workers", Label: "Healthcare Workers", Description: "Medical professionals and healthcare staff", Interests: []string{"health", "medical", "patient care", "safety"}, Category: CategoryProfessions},
	{ID: "office_workers", Label: "Office Workers", Description: "Corporate and administrative professionals", Interests: []string{"productivity", "technology", "career", "workplace"}, Category: CategoryProfessions},
	{ID: "retail_workers", Label: "Retail Workers", Description: "Sales associates and retail staff", Interests: []string{"customer service", "sales", "fashion", "retail"}, Category: CategoryProfessions},
	{ID: "manufacturing_workers", Label: "Manufacturing Workers", Description: "Industrial and production workers", Interests: []string{"safety", "tools", "manufacturing", "quality"}, Category: CategoryProfessions},
	{ID: "transportation_workers", Label: "Transportation Workers", Description: "Drivers, logistics, and transportation staff", Interests: []string{"safety", "logistics", "transportation", "fleet management"}, Category: CategoryProfessions},
	{ID: "warehouse_workers", Label: "Warehouse Workers", Description: "Logistics and warehouse operations staff", Interests: []string{"logistics", "inventory", "safety", "efficiency"}, Category: CategoryProfessions},
	{ID: "maintenance_workers", Label: "Maintenance Workers", Description: "Facilities and equipment maintenance staff", Interests: []string{"tools", "repair", "maintenance", "safety"}, Category: CategoryProfessions},
	{ID: "security_personnel", Label: "Security Personnel", Description: "Security guards and safety officers", Interests: []string{"safety", "security", "protection", "emergency response"}, Category: CategoryProfessions},

	{ID: "safety_conscious", Label: "Safety-Conscious Individuals", Description: "People who prioritize safety in their work and daily life", Interests: []string{"safety", "protection", "workplace safety", "personal safety"}, Category: CategoryInterests},
	{ID: "tech_enthusiasts", Label: "Tech Enthusiasts", Description: "Early adopters of technology and innovation", Interests: []string{"technology", "innovation", "gadgets", "digital tools"}, Category: CategoryInterests},
	{ID: "fitness_enthusiasts", Label: "Fitness Enthusiasts", Description: "People focused on health and physical fitness", Interests: []string{"fitness", "health", "exercise", "wellness"}, Category: CategoryInterests},
	{ID: "environmental_conscious", Label: "Environmentally Conscious", Description: "People who care about sustainability and environmental impact", Interests: []string{"sustainability", "environment", "green living", "eco-friendly"}, Category: CategoryInterests},
}

func All() []Option {
	out := make([]Option, len(options))
	for i, o := range options {
		o.Interests = append([]string(nil), o.Interests...)
		out[i] = o
	}
	return out
}

// ByCategory groups the catalog, keeping catalog order inside each group.
func ByCategory() map[string][]Option {
	out := make(map[string][]Option)
	for _, o := range All() {
		out[o.Category] = append(out[o.Category], o)
	}
	return out
}

func Get(id string) (Option, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, o := range All() {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// Describe turns a catalog ID into the free-text audience used in prompts.
// Anything that is not a catalog ID is returned unchanged.
func Describe(value string) string {
	if o, ok := Get(value); ok {
		return o.Label + ": " + o.Description
	}
	return strings.TrimSpace(value)
}
