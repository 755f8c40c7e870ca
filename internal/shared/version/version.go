package version

// Version is the scenegate release version, stamped into reports.
var Version = "1.0.0"
