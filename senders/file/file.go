package file

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AlexAkulov/orgfox"
)

// File - appends every match as a json line
type File struct {
	ReportFile string
}

func (self *File) Start() error {
	if self.ReportFile == "" {
		return fmt.Errorf("report file is not set")
	}
	return nil
}

func (self *File) Stop() error {
	return nil
}

func (self *File) Send(report orgfox.Report) error {
	if len(report.Matches) == 0 {
		return nil
	}
	f, err := os.OpenFile(self.ReportFile, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("can't open report file with: %v", err)
	}
	defer f.Close()
	for _, match := range report.Matches {
		if err := appendLine(f, match); err != nil {
			return err
		}
	}
	return nil
}

func appendLine(f *os.File, item interface{}) error {
	line, err := json.Marshal(item)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("can't write report file with: %v", err)
	}
	return nil
}
