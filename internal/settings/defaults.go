// ABOUTME: Declared default values for the options consumed by the engine
// ABOUTME: A key is resolvable without overrides only if it appears here

package settings

// Well-known option keys.
const (
	KeyLanguage        = "options.general.language"
	KeyEncoding        = "options.general.encoding"
	KeyCommandStacking = "options.input.command_stacking"
	KeyRichText        = "options.output.richtext"
	KeyTTSOn           = "options.TTS.on"
	KeyTTSOutside      = "options.TTS.outside"
)

// Defaults returns the built-in defaults. The map is a fresh copy.
func Defaults() map[string]any {
	return map[string]any{
		KeyLanguage:        "en",
		KeyEncoding:        "iso8859_15",
		KeyCommandStacking: ";",
		KeyRichText:        true,
		KeyTTSOn:           true,
		KeyTTSOutside:      true,
	}
}
