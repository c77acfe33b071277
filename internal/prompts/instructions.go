package prompts

import (
	"fmt"
	"sort"
	"strings"
)

// Instruction is a guided chat flow, such as adding a work experience
type Instruction struct {
	Type        string `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
	// TargetSection receives a structured reply that names no section itself
	TargetSection string `json:"target_section"`
	// Params are the placeholders Prompt requires
	Params []string `json:"params,omitempty"`
}

// UnknownInstructionError is returned for an instruction type that is not registered
type UnknownInstructionError struct {
	Type string
}

func (e *UnknownInstructionError) Error() string {
	return fmt.Sprintf("unknown instruction %q", e.Type)
}

// MissingParamsError is returned when an instruction is started without its required params
type MissingParamsError struct {
	Type    string
	Missing []string
}

func (e *MissingParamsError) Error() string {
	return fmt.Sprintf("instruction %q requires %s", e.Type, strings.Join(e.Missing, ", "))
}

// GetInstruction returns the registered instruction of the given type
func GetInstruction(instructionType string) (Instruction, error) {
	all, err := loadFile[Instruction](InstructionsFile)
	if err != nil {
		return Instruction{}, err
	}
	inst, ok := all[instructionType]
	if !ok {
		return Instruction{}, &UnknownInstructionError{Type: instructionType}
	}
	inst.Type = instructionType
	return inst, nil
}

// Instructions lists every registered instruction sorted by type
func Instructions() ([]Instruction, error) {
	all, err := loadFile[Instruction](InstructionsFile)
	if err != nil {
		return nil, err
	}
	out := make([]Instruction, 0, len(all))
	for t, inst := range all {
		inst.Type = t
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

// Render fills the instruction prompt with params. Every declared param must be non-empty.
func (i Instruction) Render(params map[string]string) (string, error) {
	var missing []string
	for _, p := range i.Params {
		if strings.TrimSpace(params[p]) == "" {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return "", &MissingParamsError{Type: i.Type, Missing: missing}
	}
	return Format(i.Prompt, params), nil
}
