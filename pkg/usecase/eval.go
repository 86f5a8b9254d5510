package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/leaktrawl/pkg/domain/interfaces"
	"github.com/secmon-lab/leaktrawl/pkg/domain/model"
)

// EvalUseCase scores the stored corpus against a ground-truth dataset
type EvalUseCase struct {
	repo interfaces.Repository
}

// NewEvalUseCase creates a new EvalUseCase instance
func NewEvalUseCase(repo interfaces.Repository) *EvalUseCase {
	return &EvalUseCase{repo: repo}
}

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldDomain
	fieldDate
)

// evalFields are the entry fields tallied per ground-truth record. A field
// is only counted when the truth record states it.
var evalFields = []struct {
	name string
	kind fieldKind
	get  func(*model.Entry) string
}{
	{"group", fieldText, func(e *model.Entry) string { return e.Group }},
	{"industry", fieldText, func(e *model.Entry) string { return e.Industry }},
	{"country", fieldText, func(e *model.Entry) string { return e.Country }},
	{"domain", fieldDomain, func(e *model.Entry) string { return e.Domain }},
	{"attack_date", fieldDate, func(e *model.Entry) string { return e.AttackDate }},
	{"published", fieldDate, func(e *model.Entry) string { return e.Published }},
}

// Evaluate matches each ground-truth record to a stored entry by actor
// group and normalized victim name, then tallies per-field agreement:
// exact matches plus a soft similarity ratio for text fields. Domains are
// compared after stripping scheme, path, port and www; dates compare by
// calendar day. A truth record with no stored counterpart is reported as
// missing and does not contribute to field scores.
func (uc *EvalUseCase) Evaluate(ctx context.Context, truth []*model.Entry) (*model.EvalReport, error) {
	if len(truth) == 0 {
		return nil, goerr.New("ground-truth dataset is empty")
	}

	report := &model.EvalReport{
		Truth:  len(truth),
		Fields: make(map[string]model.FieldScore),
	}

	byGroup := make(map[string][]*model.Entry)
	for _, want := range truth {
		wantVictim := foldValue(want.Victim)
		if wantVictim == "" {
			continue
		}

		group := foldValue(want.Group)
		stored, ok := byGroup[group]
		if !ok {
			var err error
			stored, err = uc.repo.Entry().ListByGroup(ctx, group)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to list entries for evaluation",
					goerr.V("group", group))
			}
			byGroup[group] = stored
		}

		got := matchVictim(stored, wantVictim)
		if got == nil {
			report.Missing = append(report.Missing, want.Victim)
			continue
		}
		report.Found++

		for _, field := range evalFields {
			wantValue := field.get(want)
			if strings.TrimSpace(wantValue) == "" {
				continue
			}
			exact, soft := scoreField(field.kind, wantValue, field.get(got))

			score := report.Fields[field.name]
			score.Total++
			if exact {
				score.Matched++
			}
			score.SoftSum += soft
			report.Fields[field.name] = score
		}
	}

	return report, nil
}

func scoreField(kind fieldKind, want, got string) (bool, float64) {
	switch kind {
	case fieldDomain:
		want, got = normDomain(want), normDomain(got)
	case fieldDate:
		equal := sameDay(want, got)
		if equal {
			return true, 1.0
		}
		return false, 0.0
	default:
		want, got = foldValue(want), foldValue(got)
	}

	if want == got {
		return true, 1.0
	}
	return false, softRatio(want, got)
}

func matchVictim(entries []*model.Entry, victim string) *model.Entry {
	for _, e := range entries {
		if foldValue(e.Victim) == victim {
			return e
		}
	}
	return nil
}

func foldValue(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normDomain reduces a URL or host string to its bare host: scheme, path,
// port and a leading www are stripped.
func normDomain(s string) string {
	s = foldValue(s)
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	s, _, _ = strings.Cut(s, "/")
	s, _, _ = strings.Cut(s, ":")
	return strings.TrimPrefix(s, "www.")
}

// softRatio is the normalized edit-distance similarity of two folded
// strings in [0, 1].
func softRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	return 1.0 - float64(dist)/float64(longest)
}

var dateLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

func parseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func sameDay(a, b string) bool {
	ta, oka := parseDay(a)
	tb, okb := parseDay(b)
	if !oka || !okb {
		return foldValue(a) == foldValue(b)
	}
	ya, ma, da := ta.Date()
	yb, mb, db := tb.Date()
	return ya == yb && ma == mb && da == db
}
