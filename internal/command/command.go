// Package command defines the closed set of task mutations and decodes them
// from form payloads.
package command

// Name is the wire name of a command.
type Name string

const (
	NameCreate        Name = "TodoCreate"
	NameDelete        Name = "TodoDelete"
	NameSetChecked    Name = "TodoSetChecked"
	NameSetTitle      Name = "TodoSetTitle"
	NameSetPinned     Name = "TodoSetPinned"
	NameDeleteAccount Name = "DeleteAccount"

	// Unknown is reported for payloads that decode to no command at all.
	Unknown Name = "Unknown"
)

// Command is implemented only by the variants in this package.
type Command interface {
	Name() Name
	sealed()
}

// Targeted is a command aimed at a single task.
type Targeted interface {
	Command
	TaskID() string
}

type Create struct {
	Title string
}

type Delete struct {
	ID string
}

type SetChecked struct {
	ID      string
	Checked bool
}

type SetPinned struct {
	ID string
}

type SetTitle struct {
	ID    string
	Title string
}

type DeleteAccount struct{}

func (Create) Name() Name { return NameCreate }
func (Delete) Name() Name { return NameDelete }
func (SetChecked) Name() Name { return NameSetChecked }
func (SetPinned) Name() Name { return NameSetPinned }
func (SetTitle) Name() Name { return NameSetTitle }
func (DeleteAccount) Name() Name { return NameDeleteAccount }

func (Create) sealed() {}
func (Delete) sealed() {}
func (SetChecked) sealed() {}
func (SetPinned) sealed() {}
func (SetTitle) sealed() {}
func (DeleteAccount) sealed() {}

func (c Delete) TaskID() string { return c.ID }
func (c SetChecked) TaskID() string { return c.ID }
func (c SetPinned) TaskID() string { return c.ID }
func (c SetTitle) TaskID() string { return c.ID }
