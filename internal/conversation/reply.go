package conversation

type ReplyKind string

const (
	ReplyText    ReplyKind = "text"
	ReplyButtons ReplyKind = "buttons"
	ReplyList    ReplyKind = "list"
)

type Button struct {
	ID    string
	Title string
}

type Row struct {
	ID          string
	Title       string
	Description string
}

type Section struct {
	Title string
	Rows  []Row
}

// Reply is one outbound message. Interactive replies always number their options in Body
// so a customer on a client without interactive support can answer by typing.
type Reply struct {
	Kind       ReplyKind
	Body       string
	Buttons    []Button
	ListButton string
	Sections   []Section
}

func Text(body string) Reply {
	return Reply{Kind: ReplyText, Body: body}
}

func Buttons(body string, buttons ...Button) Reply {
	return Reply{Kind: ReplyButtons, Body: body, Buttons: buttons}
}

func List(body, button string, sections ...Section) Reply {
	return Reply{Kind: ReplyList, Body: body, ListButton: button, Sections: sections}
}
