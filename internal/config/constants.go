package config

// SourceFileExt is the extension of program files the demo host loads.
const SourceFileExt = ".a68"

// SettingsFileNames are searched for, in order, by FindSettings.
var SettingsFileNames = []string{"monitor.yaml", "monitor.yml"}

// Monitor defaults.
const (
	DefaultPrompt   = "(monitor) "
	DefaultElems    = 24 // row elements shown before the summary line
	DefaultLines    = 10 // source lines shown by list
	DefaultFrames   = 3  // frames shown by stack, link and calls
	DefaultMaxDepth = 4  // reference levels the printer follows
	DefaultHistory  = 20 // journal entries shown by history

	// ModeStackSize bounds the number of live entries while evaluating.
	ModeStackSize = 32
	// ValueStackSize bounds the bytes of live entries while evaluating.
	ValueStackSize = 64 << 10

	// MaxLineLength is the longest command line accepted.
	MaxLineLength = 1024
)

// Built-in environment names the monitor treats specially.
const (
	RowsModeName   = "ROWS"
	StringModeName = "STRING"
)
