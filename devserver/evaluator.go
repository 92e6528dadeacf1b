package devserver

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"slices"
	"strings"

	"github.com/randalmurphal/reviewdesk/content"
)

// Upload is an image received by an audit endpoint.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Evaluation is the outcome of checking one image against a manual.
type Evaluation struct {
	Verdict    content.Verdict
	Violations []content.Violation
	Notes      []string
}

// Evaluator judges an image against a brand manual.
type Evaluator interface {
	Evaluate(ctx context.Context, manual Manual, img Upload) (Evaluation, error)
}

// ManualEvaluator checks the manual's visual rules using only the image
// header: format, minimum dimensions and aspect ratio.
type ManualEvaluator struct{}

// Evaluate implements Evaluator.
func (ManualEvaluator) Evaluate(_ context.Context, m Manual, img Upload) (Evaluation, error) {
	var ev Evaluation

	cfg, format, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		ev.Violations = append(ev.Violations, content.Violation{
			Rule:     "image must be a readable PNG, JPEG or GIF file",
			Evidence: fmt.Sprintf("%s: %v", img.Filename, err),
			Fix:      "re-export the image in a supported format",
		})
		return ev.finish(), nil
	}
	ev.Notes = append(ev.Notes, fmt.Sprintf("%s %dx%d", format, cfg.Width, cfg.Height))

	if len(m.AllowedFormats) > 0 && !slices.Contains(m.AllowedFormats, format) {
		ev.Violations = append(ev.Violations, content.Violation{
			Rule:     "format must be one of " + strings.Join(m.AllowedFormats, ", "),
			Evidence: "image is " + format,
			Fix:      "convert to " + m.AllowedFormats[0],
		})
	}
	if cfg.Width < m.MinWidth || cfg.Height < m.MinHeight {
		ev.Violations = append(ev.Violations, content.Violation{
			Rule:     fmt.Sprintf("minimum size is %dx%d", m.MinWidth, m.MinHeight),
			Evidence: fmt.Sprintf("image is %dx%d", cfg.Width, cfg.Height),
			Fix:      "supply a higher-resolution render",
		})
	}
	if ratio := aspect(cfg.Width, cfg.Height); m.MaxAspectRatio > 0 && ratio > m.MaxAspectRatio {
		ev.Violations = append(ev.Violations, content.Violation{
			Rule:     fmt.Sprintf("aspect ratio must not exceed %.2f:1", m.MaxAspectRatio),
			Evidence: fmt.Sprintf("image ratio is %.2f:1", ratio),
			Fix:      "crop closer to the approved framing",
		})
	}
	return ev.finish(), nil
}

func (ev Evaluation) finish() Evaluation {
	ev.Verdict = content.VerdictCheck
	if len(ev.Violations) > 0 {
		ev.Verdict = content.VerdictFail
	}
	if ev.Violations == nil {
		ev.Violations = []content.Violation{}
	}
	if ev.Notes == nil {
		ev.Notes = []string{}
	}
	return ev
}

func aspect(w, h int) float64 {
	if w == 0 || h == 0 {
		return 0
	}
	long, short := max(w, h), min(w, h)
	return float64(long) / float64(short)
}
