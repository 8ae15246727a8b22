package form

import (
	"context"
	"errors"
	"strings"

	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/pkg/cep"
	"github.com/mapa-cultural/core/internal/pkg/metrics"
	"go.uber.org/zap"
)

// State is the form's position in the postal code gate.
type State string

const (
	StateAwaitingGate State = "awaiting-gate"
	StateGateFailed   State = "gate-failed"
	StateGatePassed   State = "gate-passed"
	StateSubmitted    State = "submitted"
)

// Messages shown for gate outcomes.
const (
	MsgIneligible   = "Obrigado pelo interesse! Este mapeamento é exclusivo para artistas e agentes culturais de %s."
	MsgCEPNotFound  = "CEP não encontrado. Confira os números digitados."
	MsgLookupFailed = "Não foi possível consultar o CEP agora. Tente novamente em instantes."
)

// GateResult is the outcome of evaluating a postal code.
type GateResult struct {
	State    State             `json:"state"`
	CEP      string            `json:"cep"`
	Address  *cep.Address      `json:"address,omitempty"`
	Autofill map[string]string `json:"autofill"`
	Cleared  []string          `json:"cleared"`
	Message  string            `json:"message,omitempty"`
	// Looked reports whether the lookup service was called.
	Looked bool `json:"-"`
}

// Gate decides eligibility from a postal code.
type Gate struct {
	lookup      cep.Lookuper
	allowedCity string
	strategy    AutofillStrategy
	log         *zap.Logger
}

func NewGate(lookup cep.Lookuper, allowedCity string, strategy AutofillStrategy, log *zap.Logger) *Gate {
	if strategy == nil {
		strategy = DefaultAutofill()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{lookup: lookup, allowedCity: strings.TrimSpace(allowedCity), strategy: strategy, log: log}
}

// AllowedCity is the single eligible locality.
func (g *Gate) AllowedCity() string { return g.allowedCity }

// Strategy returns the autofill strategy in use.
func (g *Gate) Strategy() AutofillStrategy { return g.strategy }

// CityMatches compares localities case-insensitively.
func (g *Gate) CityMatches(city string) bool {
	return strings.EqualFold(strings.TrimSpace(city), g.allowedCity)
}

// Evaluate normalizes raw, looks it up when complete and derives the gate state.
// Address-derived fields are listed in Cleared for every outcome except a pass.
func (g *Gate) Evaluate(ctx context.Context, questions []models.QuestionModel, raw string) GateResult {
	digits := cep.Normalize(raw)
	targets := g.strategy.Targets(questions, cepFieldID(questions))
	res := GateResult{
		State:    StateAwaitingGate,
		CEP:      digits,
		Autofill: map[string]string{},
		Cleared:  TargetFields(targets),
	}
	if !cep.Complete(digits) {
		return res
	}

	res.Looked = true
	addr, err := g.lookup.Lookup(ctx, digits)
	return g.resolve(res, targets, addr, err)
}

func (g *Gate) resolve(res GateResult, targets map[Concept]string, addr *cep.Address, err error) GateResult {
	switch {
	case errors.Is(err, cep.ErrNotFound), errors.Is(err, cep.ErrInvalid):
		res.Message = MsgCEPNotFound
		metrics.GateLookups.WithLabelValues("not_found").Inc()
		return res
	case err != nil:
		g.log.Warn("postal code lookup failed", zap.String("cep", res.CEP), zap.Error(err))
		res.Message = MsgLookupFailed
		metrics.GateLookups.WithLabelValues("error").Inc()
		return res
	}

	res.Address = addr
	if !g.CityMatches(addr.City) {
		res.State = StateGateFailed
		res.Message = ineligibleMessage(g.allowedCity)
		metrics.GateLookups.WithLabelValues("ineligible").Inc()
		return res
	}

	res.State = StateGatePassed
	res.Autofill = Fill(targets, addr)
	res.Cleared = []string{}
	metrics.GateLookups.WithLabelValues("passed").Inc()
	return res
}

func ineligibleMessage(city string) string {
	return strings.Replace(MsgIneligible, "%s", city, 1)
}

// cepFieldID returns the id of the first postal code question, or "".
func cepFieldID(questions []models.QuestionModel) string {
	for _, q := range questions {
		if q.FieldType == models.FieldCEP {
			return q.ID
		}
	}
	return ""
}
