package main

import(
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"mosaicfit/pkg/flatfield"
)

/* Example config file ...

lowthresh: 10
highthresh: 230
subtract: true
outputfilename: background.png
correcteddir: corrected/

*/

type RunConfig struct {
	LowThresh      int
	HighThresh     int
	Subtract       bool
	Divide         bool
	OutputFilename string
	CorrectedDir   string
}

func newRunConfig() RunConfig {
	return RunConfig{
		LowThresh:      0,
		HighThresh:     255,
		OutputFilename: "background.png",
	}
}

func loadRunConfig(filename string) (RunConfig, error) {
	c := newRunConfig()

	contents, err := os.ReadFile(filename)
	if err != nil {
		return c, fmt.Errorf("read '%s': %v", filename, err)
	}
	if err := yaml.Unmarshal(contents, &c); err != nil {
		return c, fmt.Errorf("parse '%s': %v", filename, err)
	}
	return c, nil
}

// Flags the user actually set on the command line win over the file.
func (c *RunConfig)applyFlags() {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "low":
			c.LowThresh = fLow
		case "high":
			c.HighThresh = fHigh
		case "mode":
			c.Subtract = fMode == "subtract"
			c.Divide = fMode == "divide"
		case "out":
			c.OutputFilename = fOut
		case "corrected":
			c.CorrectedDir = fCorrectedDir
		}
	})
}

func (c RunConfig)estimatorConfig() flatfield.Config {
	return flatfield.Config{
		LowThresh:  uint8(c.LowThresh),
		HighThresh: uint8(c.HighThresh),
		Subtract:   c.Subtract,
		Divide:     c.Divide,
	}
}
