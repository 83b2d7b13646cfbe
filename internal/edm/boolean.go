package edm

import "errors"

func parseBooleanLiteral(text string) (interface{}, error) {
	switch text {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return nil, errors.New("expected true or false")
}

func parseNullLiteral(text string) (interface{}, error) {
	if text != "null" {
		return nil, errors.New("expected null")
	}
	return nil, nil
}

func parseResourceLiteral(string) (interface{}, error) {
	return nil, errors.New("resource values have no literal form")
}
