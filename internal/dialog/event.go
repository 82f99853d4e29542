package dialog

// EventKind discriminates the three inbound event shapes the router handles.
type EventKind int

const (
	// EventStart is the /start command.
	EventStart EventKind = iota
	// EventAction is an inline button press carrying an action tag.
	EventAction
	// EventText is a free-text line.
	EventText
)

// Event is a tagged variant of an inbound conversational event.
type Event struct {
	Kind   EventKind
	Action string
	Text   string
}

func Start() Event            { return Event{Kind: EventStart} }
func Action(tag string) Event { return Event{Kind: EventAction, Action: tag} }
func Text(line string) Event  { return Event{Kind: EventText, Text: line} }

// StartWithCode is a start command arriving through a referral deep link.
func StartWithCode(code string) Event { return Event{Kind: EventStart, Text: code} }

// Action tags carried in callback data.
const (
	ActionPlanDate    = "plan_date"
	ActionPlanLater   = "plan_later"
	ActionBackToMain  = "back_main"
	ActionBackToMonth = "back_months"
	ActionSubscribe   = "subscribe"
	ActionAskQuestion = "ask_question"
	ActionStartOver   = "start_over"
	ActionCheckPay    = "check_payment"
	ActionCancel      = "cancel_subscription"

	actionMonthPrefix = "month_"
	actionCityPrefix  = "city_"
)

// Button is one inline keyboard choice.
type Button struct {
	Text   string
	Action string
}

// Conversation is the outbound side of a single chat. The telegram package
// adapts telebot to it; tests record into a fake.
type Conversation interface {
	// Send delivers a new message, optionally with an inline menu.
	Send(text string, menu [][]Button) error
	// Edit rewrites the message the user interacted with.
	Edit(text string, menu [][]Button) error
	// Answer shows a transient notice without changing any message.
	Answer(text string) error
	// SendVideo delivers a video by its platform file reference.
	SendVideo(fileID, caption string) error
	// Typing flashes a "typing" indicator.
	Typing() error
}
