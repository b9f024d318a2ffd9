// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package logger

import (
	"os"
	"strings"
)

// Component is an enumeration representing the "components" which can be logged against. A Level can be
// configured on a per-component basis.
type Component int

const (
	// ComponentAll enables logging for all components.
	ComponentAll Component = iota

	// ComponentPin enables logging of pin and lease transitions.
	ComponentPin

	// ComponentCursor enables leased cursor logging.
	ComponentCursor

	// ComponentSequence enables query sequence logging.
	ComponentSequence
)

// ComponentLiteral is an enumeration representing the string literal "components" which can be logged against.
type ComponentLiteral string

const (
	ComponentLiteralAll      ComponentLiteral = "all"
	ComponentLiteralPin      ComponentLiteral = "pin"
	ComponentLiteralCursor   ComponentLiteral = "cursor"
	ComponentLiteralSequence ComponentLiteral = "sequence"
)

// Component returns the Component for the given ComponentLiteral.
func (componentLiteral ComponentLiteral) Component() Component {
	switch componentLiteral {
	case ComponentLiteralPin:
		return ComponentPin
	case ComponentLiteralCursor:
		return ComponentCursor
	case ComponentLiteralSequence:
		return ComponentSequence
	default:
		return ComponentAll
	}
}

func (c Component) String() string {
	switch c {
	case ComponentPin:
		return string(ComponentLiteralPin)
	case ComponentCursor:
		return string(ComponentLiteralCursor)
	case ComponentSequence:
		return string(ComponentLiteralSequence)
	default:
		return string(ComponentLiteralAll)
	}
}

// componentEnvVar is an enumeration representing the environment variables which can be used to configure
// a component's log level.
type componentEnvVar string

const (
	componentEnvVarAll      componentEnvVar = "MONGOIKA_LOG_ALL"
	componentEnvVarPin      componentEnvVar = "MONGOIKA_LOG_PIN"
	componentEnvVarCursor   componentEnvVar = "MONGOIKA_LOG_CURSOR"
	componentEnvVarSequence componentEnvVar = "MONGOIKA_LOG_SEQUENCE"
)

var allComponentEnvVars = []componentEnvVar{
	componentEnvVarAll,
	componentEnvVarPin,
	componentEnvVarCursor,
	componentEnvVarSequence,
}

func (env componentEnvVar) component() Component {
	switch env {
	case componentEnvVarPin:
		return ComponentPin
	case componentEnvVarCursor:
		return ComponentCursor
	case componentEnvVarSequence:
		return ComponentSequence
	default:
		return ComponentAll
	}
}

// getEnvComponentLevels returns the component levels configured through the environment. MONGOIKA_LOG_ALL
// applies to every component and takes precedence over the per-component variables.
func getEnvComponentLevels() map[Component]Level {
	levels := make(map[Component]Level)

	var all Level
	for _, env := range allComponentEnvVars {
		value := strings.TrimSpace(os.Getenv(string(env)))
		if value == "" {
			continue
		}

		level := ParseLevel(value)
		if env == componentEnvVarAll {
			all = level
			continue
		}
		levels[env.component()] = level
	}

	if all != LevelOff {
		for _, env := range allComponentEnvVars {
			levels[env.component()] = all
		}
	}

	return levels
}
