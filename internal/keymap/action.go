package keymap

// Action is the closed set of rebindable operations. Search entry ("/"),
// search exit (Esc) and the help toggle ("?") are fixed keys handled
// outside the binding table.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionMoveUp
	ActionMoveDown
	ActionJumpUp
	ActionJumpDown
	ActionJumpToTop
	ActionJumpToBottom
	ActionNavigateInto
	ActionNavigateUp
	ActionClearSearch
	ActionDownloadMode
	ActionHistoryMode
	ActionCopyPath
	ActionToggleFocus
	ActionFocusPreview
	ActionFocusExplorer
	ActionVisualMode
	ActionYank
	ActionResizeLeft
	ActionResizeRight
	ActionToggleWrap
)

var actionNames = map[Action]string{
	ActionQuit:          "quit",
	ActionMoveUp:        "move_up",
	ActionMoveDown:      "move_down",
	ActionJumpUp:        "jump_up",
	ActionJumpDown:      "jump_down",
	ActionJumpToTop:     "jump_to_top",
	ActionJumpToBottom:  "jump_to_bottom",
	ActionNavigateInto:  "navigate_into",
	ActionNavigateUp:    "navigate_up",
	ActionClearSearch:   "clear_search",
	ActionDownloadMode:  "download_mode",
	ActionHistoryMode:   "history_mode",
	ActionCopyPath:      "copy_path",
	ActionToggleFocus:   "toggle_focus",
	ActionFocusPreview:  "focus_preview",
	ActionFocusExplorer: "focus_explorer",
	ActionVisualMode:    "visual_mode",
	ActionYank:          "yank",
	ActionResizeLeft:    "resize_left",
	ActionResizeRight:   "resize_right",
	ActionToggleWrap:    "toggle_wrap",
}

// Actions lists every bindable action in declaration order. Binding tables
// are built in this order, which is what "first declared wins" refers to
// when two bindings overlap.
var Actions = []Action{
	ActionQuit,
	ActionMoveUp,
	ActionMoveDown,
	ActionJumpUp,
	ActionJumpDown,
	ActionJumpToTop,
	ActionJumpToBottom,
	ActionNavigateInto,
	ActionNavigateUp,
	ActionClearSearch,
	ActionDownloadMode,
	ActionHistoryMode,
	ActionCopyPath,
	ActionToggleFocus,
	ActionFocusPreview,
	ActionFocusExplorer,
	ActionVisualMode,
	ActionYank,
	ActionResizeLeft,
	ActionResizeRight,
	ActionToggleWrap,
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "none"
}

// ActionFromName resolves a configuration key to its action.
func ActionFromName(name string) (Action, bool) {
	for action, actionName := range actionNames {
		if actionName == name {
			return action, true
		}
	}
	return ActionNone, false
}

// DefaultSpecs returns the built-in key-spec strings per action.
func DefaultSpecs() map[Action][]string {
	return map[Action][]string{
		ActionQuit:          {"Ctrl-c", "Ctrl-q"},
		ActionMoveUp:        {"Up", "k"},
		ActionMoveDown:      {"Down", "j"},
		ActionJumpUp:        {"Ctrl-u", "K"},
		ActionJumpDown:      {"Ctrl-d", "J"},
		ActionJumpToTop:     {"gg", "Home"},
		ActionJumpToBottom:  {"G", "End"},
		ActionNavigateInto:  {"Enter", "Right", "l"},
		ActionNavigateUp:    {"Left", "h"},
		ActionClearSearch:   {"jj"},
		ActionDownloadMode:  {"s", "S"},
		ActionHistoryMode:   {"r", "R"},
		ActionCopyPath:      {"y", "Y"},
		ActionToggleFocus:   {"Tab"},
		ActionFocusPreview:  {"Ctrl-l"},
		ActionFocusExplorer: {"Ctrl-h"},
		ActionVisualMode:    {"v"},
		ActionYank:          {"y"},
		ActionResizeLeft:    {"H"},
		ActionResizeRight:   {"L"},
		ActionToggleWrap:    {"w"},
	}
}
