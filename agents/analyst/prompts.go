package analyst

import "fmt"

const creationInstructions = `You are tasked with creating a set of AI analyst personas. Follow these instructions carefully:

1. First, review the research topic:

%s

2. Examine any editorial feedback that has been optionally provided to guide creation of the analysts:

%s

3. Determine the most interesting themes based upon the topic and the feedback above.

4. Pick the top %d themes.

5. Assign one analyst to each theme. Each analyst gets a name, a role, an affiliation, and a description of their focus, concerns, and motives.

Respond with a JSON object of the form:
{"analysts": [{"name": "...", "role": "...", "affiliation": "...", "description": "..."}]}`

func creationPrompt(topic string, maxAnalysts int, feedback string) string {
	return fmt.Sprintf(creationInstructions, topic, feedback, maxAnalysts)
}
