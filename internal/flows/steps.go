package flows

import "github.com/abenov/qoymabot/core/telegram/state"

// Flow identifies one conversational flow.
type Flow string

const (
	FlowAdd      Flow = "add"
	FlowIncome   Flow = "income"
	FlowSale     Flow = "sale"
	FlowWriteOff Flow = "writeoff"
	FlowDelete   Flow = "delete"
	FlowEdit     Flow = "edit"
	FlowSearch   Flow = "search"
)

// Steps of the linear flows. Each step accepts exactly one text input or,
// for confirmation and field choice, one structured selection event.
const (
	StepAddName state.Step = "add_name"
	StepAddQty  state.Step = "add_qty"
	StepAddExp  state.Step = "add_exp"
	StepAddMin  state.Step = "add_min"

	StepInID  state.Step = "in_id"
	StepInQty state.Step = "in_qty"

	StepOutID  state.Step = "out_id"
	StepOutQty state.Step = "out_qty"

	StepWOID     state.Step = "wo_id"
	StepWOQty    state.Step = "wo_qty"
	StepWOReason state.Step = "wo_reason"

	StepDelID      state.Step = "del_id"
	StepDelConfirm state.Step = "del_confirm"

	StepEditID   state.Step = "edit_id"
	StepEditMenu state.Step = "edit_menu"
	StepEditName state.Step = "edit_name"
	StepEditExp  state.Step = "edit_exp"
	StepEditMin  state.Step = "edit_min"

	StepSearchQuery state.Step = "search_query"
)

// EditField selects which product field the edit flow changes.
type EditField string

const (
	EditFieldName      EditField = "name"
	EditFieldExpiry    EditField = "exp"
	EditFieldThreshold EditField = "min"
)

// AddDraft accumulates the add flow's collected fields.
type AddDraft struct {
	Name    string
	Qty     int
	ExpDate *string
}

// MovementDraft carries the resolved product for income and sale flows.
type MovementDraft struct {
	ProductID int64
	Name      string
}

// WriteOffDraft carries the resolved product and quantity pending a reason.
type WriteOffDraft struct {
	ProductID int64
	Name      string
	Qty       int
}

// DeleteDraft carries the product awaiting deletion confirmation.
type DeleteDraft struct {
	ProductID int64
	Name      string
}

// EditDraft carries the product being edited and the chosen field.
type EditDraft struct {
	ProductID int64
	Name      string
	Field     EditField
}
