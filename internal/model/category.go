package model

// Category groups tasks by area (work, health, study, etc.).
type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Icon      string `json:"icon"`
	Order     int    `json:"order"`
	TaskCount int    `json:"taskCount"`
}

// DefaultColors is the palette offered when creating a category.
var DefaultColors = []string{
	"#5B21B6", "#3B82F6", "#10B981", "#F59E0B",
	"#EF4444", "#8B5CF6", "#06B6D4", "#84CC16",
}

// DefaultIcons are the icon keys offered when creating a category.
var DefaultIcons = []string{
	"Tag", "Briefcase", "Code", "Users", "User", "Home",
	"Star", "Heart", "Zap", "Target", "Calendar", "Clock",
}

// CategoryPatch describes a partial update of a category.
type CategoryPatch struct {
	Name  *string
	Color *string
	Icon  *string
	Order *int
}

// IsEmpty reports whether the patch changes nothing.
func (p CategoryPatch) IsEmpty() bool {
	return p.Name == nil && p.Color == nil && p.Icon == nil && p.Order == nil
}

// Apply returns a copy of c with the patch applied.
func (p CategoryPatch) Apply(c Category) Category {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
	if p.Order != nil {
		c.Order = *p.Order
	}
	return c
}
