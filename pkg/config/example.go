package config

// ExampleJSON returns a sample configuration for goinsert init. Every value
// is the default.
func ExampleJSON() string {
	return `{
  "filter": "lanczos",
  "fuzz": 0,
  "insertBackground": "",
  "defaultBackground": "#ffffff",
  "duplicates": "abort",
  "rotation": "lenient",
  "jpegQuality": 0,
  "preview": {
    "font": "",
    "fontSize": 0,
    "color": "#ff00ff"
  },
  "log": {
    "level": "info",
    "format": "console"
  }
}
`
}
