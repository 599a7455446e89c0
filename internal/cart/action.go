package cart

import (
	"encoding/json"
	"fmt"
)

// ActionType is the string tag carried by every action.
type ActionType string

const (
	ActionAdd      ActionType = "ADD"
	ActionRemove   ActionType = "REMOVE"
	ActionQuantity ActionType = "QUANTITY"
	ActionSubmit   ActionType = "SUBMIT"
)

// ActionTypeSet is the action vocabulary handed to consumers alongside
// dispatch so they never spell tags by hand.
type ActionTypeSet struct {
	Add      ActionType
	Remove   ActionType
	Quantity ActionType
	Submit   ActionType
}

// ActionTypes returns the full action vocabulary.
func ActionTypes() ActionTypeSet {
	return ActionTypeSet{
		Add:      ActionAdd,
		Remove:   ActionRemove,
		Quantity: ActionQuantity,
		Submit:   ActionSubmit,
	}
}

// All lists the tags in declaration order.
func (s ActionTypeSet) All() []ActionType {
	return []ActionType{s.Add, s.Remove, s.Quantity, s.Submit}
}

// Action is a request to transition the cart. The concrete variants below are
// the only ones Reduce understands; anything else fails as unhandled.
type Action interface {
	Type() ActionType
}

// AddItem puts Item in the cart or bumps the quantity of the stored entry by
// one. Item.Qty is ignored.
type AddItem struct {
	Item LineItem
}

// RemoveItem drops the entry stored under SKU, if any.
type RemoveItem struct {
	SKU string
}

// SetQuantity overwrites the quantity of an existing entry. Zero and negative
// values are stored as given.
type SetQuantity struct {
	SKU string
	Qty int
}

// Submit empties the cart.
type Submit struct{}

func (AddItem) Type() ActionType     { return ActionAdd }
func (RemoveItem) Type() ActionType  { return ActionRemove }
func (SetQuantity) Type() ActionType { return ActionQuantity }
func (Submit) Type() ActionType      { return ActionSubmit }

// Envelope is the string-tagged wire form of an action:
//
//	{"type": "ADD", "payload": {"sku": "...", "name": "...", "price": 10, "qty": 1}}
type Envelope struct {
	Type    string    `json:"type"`
	Payload *LineItem `json:"payload,omitempty"`
}

// DecodeAction parses a JSON envelope into a typed action.
func DecodeAction(data []byte) (Action, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("cart: decode action: %w", err)
	}
	return env.Action()
}

// Action converts the envelope into its typed variant. Tags match exactly:
// "add" or " ADD" are unknown tags and fail with ErrUnhandledAction. A
// recognised tag without the payload it needs fails with ErrInvalidAction.
func (e Envelope) Action() (Action, error) {
	kind := ActionType(e.Type)
	switch kind {
	case ActionAdd:
		if e.Payload == nil || normalizeSKU(e.Payload.SKU) == "" {
			return nil, missingPayload(kind)
		}
		return AddItem{Item: *e.Payload}, nil
	case ActionRemove:
		if e.Payload == nil || normalizeSKU(e.Payload.SKU) == "" {
			return nil, missingPayload(kind)
		}
		return RemoveItem{SKU: e.Payload.SKU}, nil
	case ActionQuantity:
		if e.Payload == nil || normalizeSKU(e.Payload.SKU) == "" {
			return nil, missingPayload(kind)
		}
		return SetQuantity{SKU: e.Payload.SKU, Qty: e.Payload.Qty}, nil
	case ActionSubmit:
		return Submit{}, nil
	default:
		return nil, unhandled(e.Type)
	}
}

// EnvelopeFor renders a typed action back into its wire form.
func EnvelopeFor(action Action) (Envelope, error) {
	switch a := action.(type) {
	case AddItem:
		item := a.Item
		return Envelope{Type: string(ActionAdd), Payload: &item}, nil
	case RemoveItem:
		return Envelope{Type: string(ActionRemove), Payload: &LineItem{SKU: a.SKU}}, nil
	case SetQuantity:
		return Envelope{Type: string(ActionQuantity), Payload: &LineItem{SKU: a.SKU, Qty: a.Qty}}, nil
	case Submit:
		return Envelope{Type: string(ActionSubmit)}, nil
	case nil:
		return Envelope{}, &ActionError{Code: CodeInvalidAction, Message: "missing action"}
	default:
		return Envelope{}, unhandled(string(action.Type()))
	}
}
