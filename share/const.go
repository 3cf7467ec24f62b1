package share

// VERSION Raporty Bot Version
const VERSION = "1.2.0"

// PRVERSION Raporty Bot PR Commit
const PRVERSION = "DEV"

// BUILDNAME The name of the artifact
const BUILDNAME = "raporty"
