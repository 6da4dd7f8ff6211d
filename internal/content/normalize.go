package content

import (
	"strings"

	"github.com/acm-mitb/acm-site/internal/markup"
	"github.com/acm-mitb/acm-site/internal/model"
)

// The prepare functions trim every field, strip markup from display text
// and fill defaults. URL fields are only trimmed.

func prepareSponsor(s model.Sponsor) model.Sponsor {
	s.Name = markup.Text(s.Name)
	s.Logo = strings.TrimSpace(s.Logo)
	return s
}

func prepareEvent(e model.Event) model.Event {
	e.Title = markup.Text(e.Title)
	e.Date = markup.Text(e.Date)
	e.Description = markup.Text(e.Description)
	e.Image = strings.TrimSpace(e.Image)
	e.Link = strings.TrimSpace(e.Link)
	e.Status = strings.TrimSpace(e.Status)
	return e.WithDefaults()
}

func prepareCarouselEvent(e model.CarouselEvent) model.CarouselEvent {
	e.Title = markup.Text(e.Title)
	e.Subtitle = markup.Text(e.Subtitle)
	e.Date = markup.Text(e.Date)
	e.Description = markup.Text(e.Description)
	e.Image = strings.TrimSpace(e.Image)
	e.Link = strings.TrimSpace(e.Link)
	e.Status = strings.TrimSpace(e.Status)
	return e.WithDefaults()
}

func preparePageEvent(e model.PageEvent) model.PageEvent {
	e.Title = markup.Text(e.Title)
	e.Date = strings.TrimSpace(e.Date)
	e.Time = markup.Text(e.Time)
	e.Location = markup.Text(e.Location)
	e.Chapter = markup.Text(e.Chapter)
	e.Description = markup.Text(e.Description)
	e.Image = strings.TrimSpace(e.Image)
	e.Link = strings.TrimSpace(e.Link)
	return e
}

func prepareStory(s model.Story) model.Story {
	s.Title = markup.Text(s.Title)
	s.Description = markup.Text(s.Description)
	s.IconName = strings.TrimSpace(s.IconName)
	s.Chapters = markup.Texts(s.Chapters)
	s.Image = strings.TrimSpace(s.Image)
	s.Link = strings.TrimSpace(s.Link)
	s.Date = markup.Text(s.Date)
	return s.WithDefaults()
}

// prepareNews keeps the excerpt as markdown; it is sanitised when rendered.
func prepareNews(n model.NewsItem) model.NewsItem {
	n.Title = markup.Text(n.Title)
	n.Excerpt = strings.TrimSpace(n.Excerpt)
	n.Date = markup.Text(n.Date)
	n.Category = markup.Text(n.Category)
	n.Author = markup.Text(n.Author)
	n.Image = strings.TrimSpace(n.Image)
	return n
}

func prepareCountdown(c model.Countdown) model.Countdown {
	c.Title = markup.Text(c.Title)
	c.Subtitle = markup.Text(c.Subtitle)
	c.TargetDate = strings.TrimSpace(c.TargetDate)
	return c
}
