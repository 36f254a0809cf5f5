package extract

import "strings"

// Kind selects which record an extraction produces and how the source page
// is addressed.
type Kind int

const (
	KindCharacter Kind = iota
	KindPathway
	KindGeneral
)

func (k Kind) String() string {
	switch k {
	case KindPathway:
		return "pathway"
	case KindGeneral:
		return "general"
	default:
		return "character"
	}
}

// Character is the record produced for a character page.
type Character struct {
	Title               string `json:"title"`
	Description         string `json:"description"`
	PhysicalDescription string `json:"physical_description"`
	PathwaysAuthorities string `json:"pathways_authorities"`
	SourceURL           string `json:"source_url"`
}

// Pathway is the record produced for a pathway page.
type Pathway struct {
	Title              string `json:"title"`
	GeneralInformation string `json:"general_information"`
	SequenceLevels     string `json:"sequence_levels"`
	SourceURL          string `json:"source_url"`
}

// General is the record produced for any other page.
type General struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	SourceURL   string `json:"source_url"`
}

const generalLineCap = 4

// CharacterRules drive character extraction.
var CharacterRules = Rules{
	HeadersA:          []string{"physical description", "appearance", "description"},
	HeadersB:          []string{"pathway", "authorities", "sequence", "potion"},
	Terminators:       []string{"history", "personality", "abilities", "trivia", "references"},
	MinLengthA:        20,
	MinLengthB:        20,
	CapA:              4,
	CapB:              5,
	FallbackMinLength: 30,
	FallbackCap:       3,
}

// PathwayRules drive pathway extraction.
var PathwayRules = Rules{
	HeadersA:          []string{"general information", "overview", "description"},
	HeadersB:          []string{"sequence", "levels", "potion"},
	Terminators:       []string{"history", "notable", "references", "trivia"},
	MinLengthA:        20,
	MinLengthB:        15,
	CapA:              4,
	CapB:              8,
	FallbackMinLength: 30,
	FallbackIntoA:     true,
}

// ExtractCharacter builds a character record from flattened page text.
func ExtractCharacter(text, name, sourceURL string) Character {
	sections := Scan(text, CharacterRules)
	return Character{
		Title:               name,
		Description:         strings.Join(sections.Fallback, "\n\n"),
		PhysicalDescription: strings.Join(sections.A, "\n"),
		PathwaysAuthorities: strings.Join(sections.B, "\n"),
		SourceURL:           sourceURL,
	}
}

// ExtractPathway builds a pathway record from flattened page text.
func ExtractPathway(text, name, sourceURL string) Pathway {
	sections := Scan(text, PathwayRules)
	return Pathway{
		Title:              name + " Pathway",
		GeneralInformation: strings.Join(sections.A, "\n"),
		SequenceLevels:     strings.Join(sections.B, "\n"),
		SourceURL:          sourceURL,
	}
}

// ExtractGeneral takes the first long lines of a page as its description.
func ExtractGeneral(text, term, sourceURL string) General {
	var description []string
	for _, line := range Lines(text) {
		if len(description) >= generalLineCap {
			break
		}
		if len([]rune(line)) > 30 {
			description = append(description, line)
		}
	}

	return General{
		Title:       term,
		Description: strings.Join(description, "\n\n"),
		SourceURL:   sourceURL,
	}
}
