package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const taskID = "6f1c2a8e-3b4d-4c5e-9f60-718293a4b5c6"

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		want   Command
	}{
		{
			name:   "create without title",
			values: map[string]string{"command": "TodoCreate"},
			want:   Create{},
		},
		{
			name:   "create with title",
			values: map[string]string{"command": "TodoCreate", "title": "water plants"},
			want:   Create{Title: "water plants"},
		},
		{
			name:   "delete",
			values: map[string]string{"command": "TodoDelete", "id": taskID},
			want:   Delete{ID: taskID},
		},
		{
			name:   "check",
			values: map[string]string{"command": "TodoSetChecked", "id": taskID, "checked": "true"},
			want:   SetChecked{ID: taskID, Checked: true},
		},
		{
			name:   "uncheck",
			values: map[string]string{"command": "TodoSetChecked", "id": taskID, "checked": "false"},
			want:   SetChecked{ID: taskID, Checked: false},
		},
		{
			name:   "pin",
			values: map[string]string{"command": "TodoSetPinned", "id": taskID},
			want:   SetPinned{ID: taskID},
		},
		{
			name:   "retitle to empty",
			values: map[string]string{"command": "TodoSetTitle", "id": taskID, "title": ""},
			want:   SetTitle{ID: taskID, Title: ""},
		},
		{
			name:   "delete account ignores extra keys",
			values: map[string]string{"command": "DeleteAccount", "id": "whatever"},
			want:   DeleteAccount{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.values)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]string
		wantMsg string
	}{
		{"missing command", map[string]string{"id": taskID}, "command: is required"},
		{"unknown command", map[string]string{"command": "TodoArchive"}, `unknown command "TodoArchive"`},
		{"missing id", map[string]string{"command": "TodoDelete"}, "id: is required"},
		{"bad id", map[string]string{"command": "TodoSetPinned", "id": "42"}, "id: must be a valid uuid"},
		{"missing checked", map[string]string{"command": "TodoSetChecked", "id": taskID}, "checked: is required"},
		{"bad checked", map[string]string{"command": "TodoSetChecked", "id": taskID, "checked": "yes"}, "checked: must be one of true, false"},
		{"missing title", map[string]string{"command": "TodoSetTitle", "id": taskID}, "title: is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.values)
			assert.Nil(t, got)

			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Contains(t, decodeErr.Message, tt.wantMsg)
		})
	}
}

func TestTargeted(t *testing.T) {
	for _, c := range []Command{Delete{ID: taskID}, SetChecked{ID: taskID}, SetPinned{ID: taskID}, SetTitle{ID: taskID}} {
		targeted, ok := c.(Targeted)
		require.True(t, ok, "%s should target a task", c.Name())
		assert.Equal(t, taskID, targeted.TaskID())
	}

	for _, c := range []Command{Create{}, DeleteAccount{}} {
		_, ok := c.(Targeted)
		assert.False(t, ok, "%s should not target a task", c.Name())
	}
}
