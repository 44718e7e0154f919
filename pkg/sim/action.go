package sim

import "fmt"

// ActionType discriminates the responder action variants.
type ActionType int

const (
	ActionMove ActionType = iota
	ActionPickUp
	ActionDropOff
	ActionInstruct
)

func (t ActionType) String() string {
	switch t {
	case ActionMove:
		return "move"
	case ActionPickUp:
		return "pick_up"
	case ActionDropOff:
		return "drop_off"
	case ActionInstruct:
		return "instruct"
	default:
		return "unknown"
	}
}

// Action is a tagged variant: Move carries Target, PickUp carries Count,
// DropOff and Instruct carry nothing. Every action costs one action point,
// successful or not.
type Action struct {
	Type   ActionType
	Target int // Move only
	Count  int // PickUp only
}

// Move builds a move action toward an adjacent vertex.
func Move(target int) Action { return Action{Type: ActionMove, Target: target} }

// PickUp builds a pick-up action for count incapable occupants.
func PickUp(count int) Action { return Action{Type: ActionPickUp, Count: count} }

// DropOff builds a drop-off action.
func DropOff() Action { return Action{Type: ActionDropOff} }

// Instruct builds an instruct action for the current vertex.
func Instruct() Action { return Action{Type: ActionInstruct} }

func (a Action) String() string {
	switch a.Type {
	case ActionMove:
		return fmt.Sprintf("move(%d)", a.Target)
	case ActionPickUp:
		return fmt.Sprintf("pick_up(%d)", a.Count)
	default:
		return a.Type.String()
	}
}

// ActionResult records the outcome of one attempted action.
type ActionResult struct {
	Action Action `json:"action"`
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// DecodeAction converts the external wire encoding into an Action. Unknown
// fields are ignored; a malformed document yields a structured error.
func DecodeAction(raw map[string]any) (Action, error) {
	typ, ok := raw["type"].(string)
	if !ok {
		return Action{}, fmt.Errorf("action missing type field")
	}
	switch typ {
	case "move":
		target, ok := asInt(raw["target"])
		if !ok {
			return Action{}, fmt.Errorf("move action missing integer target")
		}
		return Move(target), nil
	case "pick_up":
		count, ok := asInt(raw["count"])
		if !ok || count <= 0 {
			return Action{}, fmt.Errorf("pick_up action needs a positive count")
		}
		return PickUp(count), nil
	case "drop_off":
		return DropOff(), nil
	case "instruct":
		return Instruct(), nil
	default:
		return Action{}, fmt.Errorf("unknown action type %q", typ)
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}
