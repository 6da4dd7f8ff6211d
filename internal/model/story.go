package model

// Story icons.
const (
	IconUsers     = "Users"
	IconLightbulb = "Lightbulb"
	IconTarget    = "Target"
)

// Story is a document in the stories collection ("moments" on chapter pages).
type Story struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	IconName    string   `json:"iconName" validate:"required,oneof=Users Lightbulb Target"`
	Chapters    []string `json:"chapters" validate:"min=1,dive,chapter"`
	Image       string   `json:"image,omitempty" validate:"omitempty,weburl"`
	Link        string   `json:"link,omitempty" validate:"omitempty,weburl"`
	Date        string   `json:"date"`
}

// Validate implements Record.
func (s Story) Validate() error {
	if len(s.Chapters) == 0 {
		return &Error{Kind: KindValidation, Op: "stories.validate", Message: "Please select at least one chapter.",
			Fields: map[string]string{"chapters": "Please select at least one chapter."}}
	}
	return validateRecord("stories.validate", s)
}

// WithDefaults fills the icon of a new story.
func (s Story) WithDefaults() Story {
	if s.IconName == "" {
		s.IconName = IconUsers
	}
	return s
}

// HasChapter reports whether the story is tagged with chapter.
func (s Story) HasChapter(chapter string) bool {
	for _, c := range s.Chapters {
		if c == chapter {
			return true
		}
	}
	return false
}

// NewsItem is a document in the news collection. Excerpt may contain markdown.
type NewsItem struct {
	Title    string `json:"title" validate:"required"`
	Excerpt  string `json:"excerpt" validate:"required"`
	Date     string `json:"date" validate:"required"`
	Category string `json:"category" validate:"required"`
	Author   string `json:"author"`
	Image    string `json:"image,omitempty" validate:"omitempty,weburl"`
}

// Validate implements Record.
func (n NewsItem) Validate() error {
	return validateRecord("news.validate", n)
}
