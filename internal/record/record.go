// Package record defines the external representation of tasks and
// categories used by the record service and its clients: snake_case field
// names, numeric ids and RFC 3339 timestamps. It also maps that
// representation to and from the internal model.
package record

// Record kinds served by the record service.
const (
	KindTasks      = "tasks"
	KindCategories = "categories"
)

// TaskRecord is a task as stored and transported by the record service.
type TaskRecord struct {
	ID          int64   `gorm:"primaryKey" json:"id"`
	Title       string  `gorm:"not null" json:"title"`
	Description string  `json:"description"`
	CategoryID  *int64  `gorm:"index" json:"category_id"`
	Priority    string  `gorm:"not null;default:medium" json:"priority"`
	DueDate     *string `json:"due_date"`
	Completed   bool    `gorm:"not null;default:false" json:"completed"`
	CompletedAt *string `json:"completed_at"`
	Archived    bool    `gorm:"not null;default:false;index" json:"archived"`
	CreatedAt   string  `json:"created_at"`
}

func (TaskRecord) TableName() string { return "tasks" }

// CategoryRecord is a category as stored and transported by the record service.
type CategoryRecord struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"not null" json:"name"`
	Color     string `json:"color"`
	Icon      string `json:"icon"`
	SortOrder int    `gorm:"column:sort_order" json:"sort_order"`
}

func (CategoryRecord) TableName() string { return "categories" }

// TaskFields are the projectable task field names.
var TaskFields = []string{
	"id", "title", "description", "category_id", "priority", "due_date",
	"completed", "completed_at", "archived", "created_at",
}

// CategoryFields are the projectable category field names.
var CategoryFields = []string{"id", "name", "color", "icon", "sort_order"}

// FieldError describes why a record or one of its fields was rejected.
type FieldError struct {
	ID      int64  `json:"id,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Envelope is the response body of every record service call.
type Envelope[T any] struct {
	Success bool         `json:"success"`
	Data    T            `json:"data,omitempty"`
	Total   *int64       `json:"total,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
	Message string       `json:"message,omitempty"`
}
