package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ashwch/s3tools/internal/appdirs"
)

// LocaleEnv overrides the detected locale.
const LocaleEnv = "S3TOOLS_LOCALE"

// Message keys.
const (
	PreviewTotal       = "preview.total"
	PreviewUnique      = "preview.unique"
	PreviewDuplicates  = "preview.duplicates"
	PreviewReading     = "preview.reading"
	PreviewWaiting     = "preview.waiting"
	PreviewStale       = "preview.stale"
	DuplicatesNone     = "duplicates.none"
	DuplicatesCreated  = "duplicates.created"
	ResultDone         = "result.done"
	ResultZip          = "result.zip"
	ResultFolder       = "result.folder"
	ResultFiles        = "result.files"
	FormatoUpdated     = "formato.updated"
	ErrorUnknown       = "error.unknown"
	ErrorReadFile      = "error.read_file"
	ErrorExport        = "error.export"
	ErrorProcess       = "error.process"
	ErrorSitemap       = "error.sitemap"
	ErrorUpdateFiles   = "error.update_files"
	ErrorNoFiles       = "error.no_files"
	ErrorNoStore       = "error.no_store"
	ErrorConfig        = "error.config"
	BatchesOverflow    = "batches.overflow"
	BatchesUseUnique   = "batches.use_unique"
	StorePick          = "store.pick"
	StoreOther         = "store.other"
	SitemapInputCount  = "sitemap.input_count"
	EnginesFound       = "engines.found"
	EnginesMissing     = "engines.missing"
	EnginesRoots       = "engines.roots"
	HistoryEmpty       = "history.empty"
	InterpreterMissing = "engines.interpreter_missing"
)

type Catalog struct {
	Locale   string            `json:"locale"`
	Messages map[string]string `json:"messages"`
}

// T formats the message for key. Unknown keys render as the key itself.
func (c Catalog) T(key string, args ...any) string {
	msg, ok := c.Messages[key]
	if !ok {
		msg = key
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

func LoadCatalog(requestedLocale string) Catalog {
	locale := NormalizeLocale(requestedLocale)
	if locale == "" || strings.EqualFold(requestedLocale, "auto") {
		locale = DetectLocale()
	}
	if locale == "" {
		locale = "en"
	}
	base := baseCatalogForLocale(locale)

	if override, ok := loadCommunityCatalog(locale); ok {
		merged := mergeCatalog(base, override)
		if strings.TrimSpace(override.Locale) != "" {
			merged.Locale = NormalizeLocale(override.Locale)
		} else {
			merged.Locale = locale
		}
		return merged
	}

	base.Locale = locale
	return base
}

func baseCatalogForLocale(locale string) Catalog {
	normalized := strings.ToLower(NormalizeLocale(locale))
	switch {
	case strings.HasPrefix(normalized, "es"):
		// Spanish first, English fallback retained.
		base := mergeCatalog(defaultEnglishCatalog(), defaultSpanishCatalog())
		base.Locale = "es"
		return base
	default:
		base := defaultEnglishCatalog()
		base.Locale = "en"
		return base
	}
}

func DetectLocale() string {
	candidates := []string{
		os.Getenv(LocaleEnv),
		os.Getenv("LC_ALL"),
		os.Getenv("LC_MESSAGES"),
		os.Getenv("LANG"),
	}
	for _, candidate := range candidates {
		if normalized := NormalizeLocale(candidate); normalized != "" {
			return normalized
		}
	}
	return "en"
}

func NormalizeLocale(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	trimmed = strings.Split(trimmed, ".")[0]
	trimmed = strings.Split(trimmed, "@")[0]
	trimmed = strings.ReplaceAll(trimmed, "_", "-")

	parts := strings.Split(trimmed, "-")
	lang := strings.ToLower(parts[0])
	if !isValidLocaleToken(lang, true) {
		return ""
	}
	if len(parts) == 1 || parts[1] == "" {
		return lang
	}
	region := strings.ToUpper(parts[1])
	if !isValidLocaleToken(strings.ToLower(region), false) {
		return ""
	}
	return lang + "-" + region
}

func isValidLocaleToken(token string, lettersOnly bool) bool {
	if len(token) < 2 || len(token) > 8 {
		return false
	}
	for _, r := range token {
		if r >= 'a' && r <= 'z' {
			continue
		}
		if !lettersOnly && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

func loadCommunityCatalog(locale string) (Catalog, bool) {
	configDir, err := appdirs.ConfigDir()
	if err != nil {
		return Catalog{}, false
	}

	normalized := NormalizeLocale(locale)
	if normalized == "" {
		return Catalog{}, false
	}
	lang := normalized
	if idx := strings.Index(lang, "-"); idx > 0 {
		lang = lang[:idx]
	}

	paths := []string{
		filepath.Join(configDir, "locales", normalized+".json"),
	}
	if lang != normalized {
		paths = append(paths, filepath.Join(configDir, "locales", lang+".json"))
	}

	for _, path := range paths {
		loaded, ok := loadCatalogFile(path)
		if ok {
			return loaded, true
		}
	}
	return Catalog{}, false
}

func loadCatalogFile(path string) (Catalog, bool) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, false
	}
	var catalog Catalog
	if err := json.Unmarshal(bytes, &catalog); err != nil {
		return Catalog{}, false
	}
	return catalog, true
}

// mergeCatalog overlays non-blank override messages onto base.
func mergeCatalog(base Catalog, override Catalog) Catalog {
	merged := Catalog{Locale: base.Locale, Messages: make(map[string]string, len(base.Messages))}
	for key, msg := range base.Messages {
		merged.Messages[key] = msg
	}
	for key, msg := range override.Messages {
		if strings.TrimSpace(msg) == "" {
			continue
		}
		merged.Messages[key] = msg
	}
	return merged
}

func defaultEnglishCatalog() Catalog {
	return Catalog{
		Locale: "en",
		Messages: map[string]string{
			PreviewTotal:       "Total ASINs (incl. duplicates): %d",
			PreviewUnique:      "Unique: %d",
			PreviewDuplicates:  "Duplicates: %d",
			PreviewReading:     "Reading file...",
			PreviewWaiting:     "Watching %s for changes (q to quit)",
			PreviewStale:       "dropped %d stale result(s)",
			DuplicatesNone:     "No duplicates detected.",
			DuplicatesCreated:  "Duplicates CSV created:\n%s",
			ResultDone:         "Done!",
			ResultZip:          "ZIP created:\n%s",
			ResultFolder:       "Folder created:\n%s",
			ResultFiles:        "Files written: %d",
			FormatoUpdated:     "Done!\nFiles updated: %d",
			ErrorUnknown:       "Unknown error.",
			ErrorReadFile:      "Could not read the file.",
			ErrorExport:        "Could not export duplicates.",
			ErrorProcess:       "Could not process the file.",
			ErrorSitemap:       "Could not generate the sitemaps.",
			ErrorUpdateFiles:   "Could not update the files.",
			ErrorNoFiles:       "No files selected.",
			ErrorNoStore:       "Select a store or enter a name.",
			ErrorConfig:        "Could not update the configuration.",
			BatchesOverflow:    "The batch count cannot exceed the number of URLs.\nURLs: %d\nBatches: %d",
			BatchesUseUnique:   "Use %d batches instead?",
			StorePick:          "Select a store",
			StoreOther:         "Other (type a name)",
			SitemapInputCount:  "Files: %d | URLs: %d",
			EnginesFound:       "found",
			EnginesMissing:     "missing",
			EnginesRoots:       "Search roots:",
			HistoryEmpty:       "No engine calls recorded yet.",
			InterpreterMissing: "interpreter not available: %s",
		},
	}
}

func defaultSpanishCatalog() Catalog {
	return Catalog{
		Locale: "es",
		Messages: map[string]string{
			PreviewTotal:       "ASIN totales (incl. duplicados): %d",
			PreviewUnique:      "Unicos: %d",
			PreviewDuplicates:  "Duplicados: %d",
			PreviewReading:     "Leyendo archivo...",
			PreviewWaiting:     "Vigilando cambios en %s (q para salir)",
			PreviewStale:       "%d resultado(s) obsoleto(s) descartado(s)",
			DuplicatesNone:     "No se detectaron duplicados.",
			DuplicatesCreated:  "CSV de duplicados creado:\n%s",
			ResultDone:         "Listo!",
			ResultZip:          "ZIP creado:\n%s",
			ResultFolder:       "Carpeta creada:\n%s",
			ResultFiles:        "Archivos generados: %d",
			FormatoUpdated:     "Listo!\nArchivos actualizados: %d",
			ErrorUnknown:       "Error desconocido.",
			ErrorReadFile:      "No se pudo leer el archivo.",
			ErrorExport:        "No se pudo exportar duplicados.",
			ErrorProcess:       "No se pudo procesar el archivo.",
			ErrorSitemap:       "No se pudo generar los sitemaps.",
			ErrorUpdateFiles:   "No se pudo actualizar los archivos.",
			ErrorNoFiles:       "No hay archivos seleccionados.",
			ErrorNoStore:       "Selecciona una tienda o escribe un nombre.",
			ErrorConfig:        "No se pudo actualizar la configuración.",
			BatchesOverflow:    "La cantidad de lotes no puede ser mayor que la cantidad de URLs.\nURLs: %d\nLotes: %d",
			BatchesUseUnique:   "Usar %d lotes?",
			StorePick:          "Selecciona una tienda",
			StoreOther:         "Otra (escribir nombre)",
			SitemapInputCount:  "Archivos: %d | URLs: %d",
			EnginesFound:       "encontrado",
			EnginesMissing:     "no encontrado",
			EnginesRoots:       "Rutas buscadas:",
			HistoryEmpty:       "Aun no hay llamadas registradas.",
			InterpreterMissing: "interprete no disponible: %s",
		},
	}
}
