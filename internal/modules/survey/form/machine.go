package form

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/modules/survey/schema"
	"github.com/mapa-cultural/core/internal/pkg/cep"
)

var (
	ErrSubmitNotAllowed = errors.New("submit is not allowed in the current state")
	ErrAlreadySubmitted = errors.New("form already submitted")
)

// Ticket identifies one lookup. Only the newest ticket may change the state.
type Ticket struct {
	Generation uint64
	CEP        string
}

// Machine tracks one respondent's progress through the form.
type Machine struct {
	gate      *Gate
	questions []models.QuestionModel
	schema    *schema.Schema
	cepField  string
	targets   map[Concept]string

	mu         sync.Mutex
	state      State
	values     map[string]interface{}
	errors     schema.FieldErrors
	message    string
	address    *cep.Address
	lastLooked string // normalized digits of the latest edit
	generation uint64
	submitting bool
}

// NewMachine starts a form over questions, which must already be in display order.
// A form without a postal code question has nothing to gate and starts in gate-passed.
func NewMachine(gate *Gate, questions []models.QuestionModel) *Machine {
	cepField := cepFieldID(questions)
	state := StateAwaitingGate
	if cepField == "" {
		state = StateGatePassed
	}
	return &Machine{
		gate:      gate,
		questions: questions,
		schema:    schema.Build(questions),
		cepField:  cepField,
		targets:   gate.Strategy().Targets(questions, cepField),
		state:     state,
		values:    map[string]interface{}{schema.ConsentField: false},
		errors:    schema.FieldErrors{},
	}
}

// CEPField is the id of the gating question, or "" when the form has none.
func (m *Machine) CEPField() string { return m.cepField }

// State returns the current gate state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// BeginCEP records a postal code edit. It returns a ticket when a lookup must be issued.
// Edits that leave the digits unchanged are ignored, incomplete codes reset the gate, and a
// complete code is looked up once until the digits change again.
func (m *Machine) BeginCEP(raw string) (Ticket, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cepField == "" {
		return Ticket{}, false
	}
	digits := cep.Normalize(raw)
	m.values[m.cepField] = raw
	if digits == m.lastLooked {
		return Ticket{}, false
	}
	m.lastLooked = digits
	m.generation++

	if !cep.Complete(digits) {
		m.resetGateLocked()
		return Ticket{}, false
	}
	return Ticket{Generation: m.generation, CEP: digits}, true
}

// ApplyLookup applies a lookup response. Responses for anything but the newest ticket
// are discarded and ApplyLookup returns false.
func (m *Machine) ApplyLookup(t Ticket, addr *cep.Address, err error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.Generation != m.generation || m.state == StateSubmitted {
		return false
	}

	res := m.gate.resolve(GateResult{
		State:    StateAwaitingGate,
		CEP:      t.CEP,
		Autofill: map[string]string{},
		Cleared:  TargetFields(m.targets),
	}, m.targets, addr, err)

	m.message = res.Message
	m.address = res.Address
	switch res.State {
	case StateGatePassed:
		m.state = StateGatePassed
		for field, v := range res.Autofill {
			m.values[field] = v
		}
	case StateGateFailed:
		m.state = StateGateFailed
		m.clearAddressLocked()
	default:
		m.state = StateAwaitingGate
		m.clearAddressLocked()
	}
	return true
}

// ChangeCEP records an edit and runs its lookup synchronously.
func (m *Machine) ChangeCEP(ctx context.Context, raw string) State {
	ticket, ok := m.BeginCEP(raw)
	if ok {
		addr, err := m.gate.lookup.Lookup(ctx, ticket.CEP)
		m.ApplyLookup(ticket, addr, err)
	}
	return m.State()
}

// SetValue stores a non-gating answer.
func (m *Machine) SetValue(field string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[field] = value
	delete(m.errors, field)
}

// SetConsent toggles the consent checkbox.
func (m *Machine) SetConsent(v bool) {
	m.SetValue(schema.ConsentField, v)
}

// CanSubmit reports whether consent is given, the gate passed and no submit is in flight.
func (m *Machine) CanSubmit() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canSubmitLocked()
}

func (m *Machine) canSubmitLocked() bool {
	consent, _ := m.values[schema.ConsentField].(bool)
	return consent && m.state == StateGatePassed && !m.submitting
}

// BeginSubmit validates the values and marks the form as submitting.
// Validation errors keep the form in gate-passed and are returned as field errors.
func (m *Machine) BeginSubmit() (map[string]interface{}, schema.FieldErrors, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateSubmitted {
		return nil, nil, ErrAlreadySubmitted
	}
	if !m.canSubmitLocked() {
		return nil, nil, ErrSubmitNotAllowed
	}
	errs := m.schema.Validate(m.values)
	if len(errs) > 0 {
		m.errors = errs
		return nil, errs, nil
	}
	m.errors = schema.FieldErrors{}
	m.submitting = true

	values := make(map[string]interface{}, len(m.values))
	for k, v := range m.values {
		values[k] = v
	}
	return values, nil, nil
}

// FinishSubmit ends an in-flight submit. Success is terminal; failure leaves the form editable.
func (m *Machine) FinishSubmit(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitting = false
	if err != nil {
		m.message = "Não foi possível enviar suas respostas. Tente novamente."
		return
	}
	m.state = StateSubmitted
	m.message = ""
}

// View is a snapshot used for rendering.
type View struct {
	State     State                  `json:"state"`
	Values    map[string]interface{} `json:"values"`
	Errors    schema.FieldErrors     `json:"errors"`
	Message   string                 `json:"message,omitempty"`
	Address   *cep.Address           `json:"address,omitempty"`
	CanSubmit bool                   `json:"can_submit"`
	// Visible lists the question ids shown in the current state.
	Visible []string `json:"visible"`
}

// Snapshot copies the current state.
func (m *Machine) Snapshot() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	values := make(map[string]interface{}, len(m.values))
	for k, v := range m.values {
		values[k] = v
	}
	errs := make(schema.FieldErrors, len(m.errors))
	for k, v := range m.errors {
		errs[k] = v
	}

	visible := []string{}
	if m.cepField != "" {
		visible = append(visible, m.cepField)
	}
	if m.state == StateGatePassed {
		for _, q := range m.questions {
			if q.ID != m.cepField {
				visible = append(visible, q.ID)
			}
		}
	}

	return View{
		State:     m.state,
		Values:    values,
		Errors:    errs,
		Message:   m.message,
		Address:   m.address,
		CanSubmit: m.canSubmitLocked(),
		Visible:   visible,
	}
}

func (m *Machine) resetGateLocked() {
	if m.state == StateSubmitted {
		return
	}
	m.state = StateAwaitingGate
	m.address = nil
	m.message = ""
	m.clearAddressLocked()
}

func (m *Machine) clearAddressLocked() {
	for _, field := range TargetFields(m.targets) {
		delete(m.values, field)
	}
}

// AddressFields lists the ids autofill writes to, sorted.
func (m *Machine) AddressFields() []string {
	out := TargetFields(m.targets)
	sort.Strings(out)
	return out
}
