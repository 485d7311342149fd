package i18n

import _ "embed"

//go:embed translations.yaml
var embeddedCatalog []byte
