package console

import (
	"fmt"
	"io"
	"os"

	"github.com/AlexAkulov/orgfox"
)

// Console - prints every rule with matches followed by one link per match
type Console struct {
	Writer io.Writer
}

func (c *Console) Start() error {
	if c.Writer == nil {
		c.Writer = os.Stdout
	}
	return nil
}

func (c *Console) Stop() error {
	return nil
}

func (c *Console) Send(report orgfox.Report) error {
	names, groups := report.ByRule()
	for _, name := range names {
		if _, err := fmt.Fprintln(c.Writer, name); err != nil {
			return err
		}
		for _, match := range groups[name] {
			if _, err := fmt.Fprintln(c.Writer, match.Link); err != nil {
				return err
			}
		}
	}
	return nil
}
