package cmd_test

import (
	"errors"
	"testing"

	"github.com/keshon/chatcmd/pkg/cmd"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		line    string
		command string
		message string
		args    []string
		size    int
	}{
		{"help", "help", "", []string{""}, 0},
		{"msg bob hi there", "msg", "bob hi there", []string{"bob", "hi", "there"}, 3},
		{"roll  2d6", "roll", " 2d6", []string{"", "2d6"}, 2},
		{"kick bob ", "kick", "bob ", []string{"bob", ""}, 2},
		{"me ", "me", "", []string{""}, 0},
		{" help", "", "help", []string{"help"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := cmd.Tokenize(tt.line)
			if err != nil {
				t.Fatalf("Tokenize(%q) error: %v", tt.line, err)
			}
			if got.Command != tt.command {
				t.Errorf("Command = %q, want %q", got.Command, tt.command)
			}
			if got.Message != tt.message {
				t.Errorf("Message = %q, want %q", got.Message, tt.message)
			}
			if len(got.Args) != len(tt.args) {
				t.Fatalf("Args = %q, want %q", got.Args, tt.args)
			}
			for i := range tt.args {
				if got.Args[i] != tt.args[i] {
					t.Errorf("Args[%d] = %q, want %q", i, got.Args[i], tt.args[i])
				}
			}
			if got.Size() != tt.size {
				t.Errorf("Size() = %d, want %d", got.Size(), tt.size)
			}
		})
	}
}

func TestTokenizeEmpty(t *testing.T) {
	_, err := cmd.Tokenize("")
	if !errors.Is(err, cmd.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestTokenizeRejoin(t *testing.T) {
	lines := []string{
		"a b",
		"msg bob  hello   world",
		"x ",
		"tell Alice &4red text",
		"  leading",
	}
	for _, line := range lines {
		got, err := cmd.Tokenize(line)
		if err != nil {
			t.Fatalf("Tokenize(%q) error: %v", line, err)
		}
		if joined := got.Command + " " + got.Message; joined != line {
			t.Errorf("rejoin of %q = %q", line, joined)
		}
	}
}
