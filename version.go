package main

// version is stamped by the release workflow via -ldflags.
var version = "0.1.0"
