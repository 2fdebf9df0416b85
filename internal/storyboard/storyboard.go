// Package storyboard plans animation beats and marketing copy from product
// attributes. Planning is deterministic and local; no remote engine is
// involved.
package storyboard

import "fmt"

// Attributes describe the product a storyboard is planned for. Unknown or
// empty fields fall back to generic clothing defaults.
type Attributes struct {
	Type  string `json:"type"`
	Color string `json:"color"`
	Style string `json:"style"`
}

// Plan is a planned storyboard: ordered beats, one line of copy, and a
// duration estimate at two seconds per beat.
type Plan struct {
	Beats             []string `json:"beats"`
	Copy              string   `json:"copy"`
	DurationEstimateS int      `json:"duration_estimate_s"`
}

const secondsPerBeat = 2

// Build plans a storyboard for the given product attributes. Every plan opens
// with a turn; outerwear gets a wave and a close-up, flowing garments get a
// walk and a second turn, everything else a wave.
func Build(attrs Attributes) Plan {
	productType := attrs.Type
	if productType == "" {
		productType = "clothing"
	}

	beats := []string{"turn"}
	switch productType {
	case "hoodie", "jacket", "coat":
		beats = append(beats, "wave", "close_up")
	case "dress", "skirt":
		beats = append(beats, "walk", "turn")
	default:
		beats = append(beats, "wave")
	}

	copyLine := fmt.Sprintf("Show off your new %s with confidence!", productType)
	if attrs.Color != "" {
		copyLine = fmt.Sprintf("Perfect fit in %s - see how it moves with you!", attrs.Color)
	} else if attrs.Style != "" {
		copyLine = fmt.Sprintf("Style meets comfort in this %s %s!", attrs.Style, productType)
	}

	return Plan{
		Beats:             beats,
		Copy:              copyLine,
		DurationEstimateS: len(beats) * secondsPerBeat,
	}
}
