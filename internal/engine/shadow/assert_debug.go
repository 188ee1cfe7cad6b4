//go:build shadowdebug

package shadow

const debugAssertions = true
