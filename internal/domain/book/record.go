package book

// Record is the serialized form of a Book used by cache payloads and seed files.
type Record struct {
	ID           string   `json:"id" yaml:"id"`
	ISBN         string   `json:"isbn,omitempty" yaml:"isbn"`
	Title        string   `json:"title" yaml:"title"`
	Author       string   `json:"author" yaml:"author"`
	AgeMin       int      `json:"age_min" yaml:"age_min"`
	AgeMax       int      `json:"age_max" yaml:"age_max"`
	Categories   []string `json:"categories" yaml:"categories"`
	ReadingLevel string   `json:"reading_level" yaml:"reading_level"`
	SafetyFlags  []string `json:"safety_flags,omitempty" yaml:"safety_flags"`
}

// ToRecord serializes a Book.
func ToRecord(b *Book) Record {
	return Record{
		ID:           b.id,
		ISBN:         b.isbn,
		Title:        b.title,
		Author:       b.author,
		AgeMin:       b.ageMin,
		AgeMax:       b.ageMax,
		Categories:   b.categories,
		ReadingLevel: b.readingLevel,
		SafetyFlags:  b.safetyFlags,
	}
}

// Fields converts the record back into constructor fields.
func (r Record) Fields() Fields {
	return Fields{
		ID:           r.ID,
		ISBN:         r.ISBN,
		Title:        r.Title,
		Author:       r.Author,
		AgeMin:       r.AgeMin,
		AgeMax:       r.AgeMax,
		Categories:   r.Categories,
		ReadingLevel: r.ReadingLevel,
		SafetyFlags:  r.SafetyFlags,
	}
}
