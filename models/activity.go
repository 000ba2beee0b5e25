package models

// ExtractedActivity is a single actionable recommendation pulled out of one
// content item by the extraction model. Ephemeral; never persisted.
type ExtractedActivity struct {
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	Description     string   `json:"description"`
	LongDescription string   `json:"long_description,omitempty"`
	PhotoKeywords   string   `json:"photo_keywords"`
	Location        string   `json:"location,omitempty"`
	Duration        string   `json:"duration,omitempty"`
	BestTime        string   `json:"best_time,omitempty"`
	Tips            string   `json:"tips,omitempty"`
}

// SourcePost is the attribution of one contributing post on a merged
// Activity.
type SourcePost struct {
	Platform   string  `json:"platform"`
	URL        string  `json:"url"`
	Author     string  `json:"author"`
	Engagement float64 `json:"engagement"`
	Language   string  `json:"language"`
}

// Activity is the caller-facing unit: one or more ExtractedActivity
// instances merged across sources. Lives for the duration of one
// extraction request.
type Activity struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Type            string       `json:"type"`
	Description     string       `json:"description"`
	LongDescription string       `json:"long_description,omitempty"`
	PhotoKeywords   string       `json:"photo_keywords"`
	Location        string       `json:"location,omitempty"`
	Duration        string       `json:"duration,omitempty"`
	BestTime        string       `json:"best_time,omitempty"`
	Tips            []string     `json:"tips,omitempty"`
	SourcePosts     []SourcePost `json:"source_posts"`
	// IsAIGenerated is true iff every contributing source was the
	// model-as-source provider, i.e. no real social corroboration.
	IsAIGenerated bool `json:"is_ai_generated"`
}
