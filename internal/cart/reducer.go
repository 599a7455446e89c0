package cart

// Reduce applies action to state and returns the next state. It has no side
// effects; on error the input state is returned as-is.
func Reduce(state State, action Action) (State, error) {
	switch a := action.(type) {
	case AddItem:
		return reduceAdd(state, a)
	case RemoveItem:
		return reduceRemove(state, a)
	case SetQuantity:
		return reduceSetQuantity(state, a)
	case Submit:
		return Empty(), nil
	case nil:
		return state, &ActionError{Code: CodeInvalidAction, Message: "missing action"}
	default:
		return state, unhandled(string(action.Type()))
	}
}

func reduceAdd(state State, a AddItem) (State, error) {
	sku := a.Item.SKU
	if normalizeSKU(sku) == "" {
		return state, missingPayload(ActionAdd)
	}
	next := state.Clone()
	entry := LineItem{SKU: sku, Name: a.Item.Name, Price: a.Item.Price, Qty: 1}
	if idx := next.indexOf(sku); idx >= 0 {
		entry.Qty = next.Items[idx].Qty + 1
		next.Items[idx] = entry
		return next, nil
	}
	next.Items = append(next.Items, entry)
	return next, nil
}

func reduceRemove(state State, a RemoveItem) (State, error) {
	if normalizeSKU(a.SKU) == "" {
		return state, missingPayload(ActionRemove)
	}
	next := State{Items: make([]LineItem, 0, len(state.Items))}
	for _, item := range state.Items {
		if item.SKU != a.SKU {
			next.Items = append(next.Items, item)
		}
	}
	if len(next.Items) == 0 {
		next.Items = nil
	}
	return next, nil
}

func reduceSetQuantity(state State, a SetQuantity) (State, error) {
	if normalizeSKU(a.SKU) == "" {
		return state, missingPayload(ActionQuantity)
	}
	idx := state.indexOf(a.SKU)
	if idx < 0 {
		return state, itemNotFound(ActionQuantity, a.SKU)
	}
	next := state.Clone()
	next.Items[idx].Qty = a.Qty
	return next, nil
}
