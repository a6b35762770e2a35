package shell

import (
	"embed"
	"regexp"
)

//go:embed helptext/*.txt
var helptext embed.FS

var topicRe = regexp.MustCompile(`^[a-z-]+$`)

func usage(mode string) (*Response, error) {
	dat, err := helptext.ReadFile("helptext/usage-" + mode + ".txt")
	if err != nil {
		return nil, err
	}
	return msg(string(dat)), nil
}

func usageTopic(topic string) (*Response, error) {
	if !topicRe.MatchString(topic) {
		return msg("There is no help text for the topic " + topic), nil
	}
	dat, err := helptext.ReadFile("helptext/" + topic + ".txt")
	if err != nil {
		return msg("There is no help text for the topic " + topic), nil
	}
	return msg(string(dat)), nil
}
