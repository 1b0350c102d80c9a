package commands

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/huh"
)

// Interfaces for dependency injection
type Output interface {
	Printf(format string, a ...interface{})
	Println(a ...interface{})
}

type SignalNotifier interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

type Clipboard interface {
	WriteAll(text string) error
}

// Launcher opens a file in an external editor
type Launcher interface {
	Launch(editor, path string) error
}

// Confirmer asks the user a yes/no question
type Confirmer interface {
	Confirm(title, description string) (bool, error)
}

// Default implementations
type defaultOutput struct{}

func (o *defaultOutput) Printf(format string, a ...interface{}) {
	fmt.Printf(format, a...)
}

func (o *defaultOutput) Println(a ...interface{}) {
	fmt.Println(a...)
}

type defaultSignalNotifier struct{}

func (n *defaultSignalNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) {
	signal.Notify(c, sig...)
}

func (n *defaultSignalNotifier) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}

type systemClipboard struct{}

func (s *systemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard is not supported on this system")
	}
	return clipboard.WriteAll(text)
}

type execLauncher struct{}

// Launch starts editor without waiting for it to exit
func (l *execLauncher) Launch(editor, path string) error {
	if _, err := exec.LookPath(editor); err != nil {
		return fmt.Errorf("editor %q not found: %w", editor, err)
	}

	cmd := exec.Command(editor, path)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", editor, err)
	}
	return cmd.Process.Release()
}

type huhConfirmer struct{}

func (h *huhConfirmer) Confirm(title, description string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	return ok, err
}
