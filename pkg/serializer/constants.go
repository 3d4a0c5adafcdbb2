package serializer

// StdoutURI is the special path indicating output should be written to stdout.
const StdoutURI = "-"

// emptyValue is printed by the table format when there is nothing to show.
const emptyValue = "<empty>"
