// Package javabin locates a Java runtime capable of running the emulator jar,
// preferring a configured JAVA_HOME-style override over a PATH lookup.
package javabin
