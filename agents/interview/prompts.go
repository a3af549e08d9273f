package interview

import "fmt"

// terminationPhrase ends an interview when it appears in a generated
// question.
const terminationPhrase = "Thank you so much for your help"

const questionInstructions = `You are an analyst tasked with interviewing an expert to learn about a specific topic.

Your goal is to boil down to interesting and specific insights related to your topic.

1. Interesting: insights that people will find surprising or non-obvious.
2. Specific: insights that avoid generalities and include specific examples from the expert.

Here is your topic of focus and set of goals:

%s

Begin by introducing yourself using a name that fits your persona, and then ask your question.

Continue to ask questions to drill down and refine your understanding of the topic.

When you are satisfied with your understanding, complete the interview with: "%s!"

Remember to stay in character throughout your response, reflecting the persona and goals provided to you.`

func questionPrompt(persona string) string {
	return fmt.Sprintf(questionInstructions, persona, terminationPhrase)
}

const searchInstructions = `You will be given a conversation between an analyst and an expert.

Your goal is to generate a well-structured query for use in retrieval and/or web search related to the conversation.

First, analyze the full conversation. Pay particular attention to the final question posed by the analyst. Convert this final question into a well-structured web search query.

Respond with a JSON object of the form: {"search_query": "..."}`

const answerInstructions = `You are an expert being interviewed by an analyst.

Here is the analyst's area of focus:

%s

Your goal is to answer the question posed by the interviewer, using only the following context:

%s

When answering questions, follow these guidelines:

1. Use only the information provided in the context.
2. Do not introduce external information or make assumptions beyond what is explicitly stated in the context.
3. The context includes sources tagged like: <Document href="..."/>. Include these sources in your answer next to any relevant statements, for example [1].
4. List your sources in order at the bottom of your answer as [1] Source 1, [2] Source 2, etc.
5. For web sources, cite the href value, for example [1] https://example.com.`

func answerPrompt(persona, context string) string {
	return fmt.Sprintf(answerInstructions, persona, context)
}

const sectionWriterInstructions = `You are an expert technical writer.

Your task is to create a short, easily digestible section of a report based on a set of source documents.

1. Analyze the content of the source documents: each document carries its source in a <Document> tag.

2. Create a report structure using markdown formatting:
- Use ## for the section title
- Use ### for the summary and sources sub-headers

3. Make your title engaging based upon the focus area of the analyst:

%s

4. For the summary section:
- Set up the summary with general background related to the focus area of the analyst
- Emphasize what is novel, interesting, or surprising about insights gathered from the interview
- Aim for approximately 400 words maximum
- Use numbered sources in your report, for example [1], [2], based on information from the source documents

5. In the sources section, list all sources used in your report, one per line, and avoid duplicates:

### Sources
[1] Link or Document name
[2] Link or Document name

6. Do not mention the names of interviewers or experts in your report.`

func sectionWriterPrompt(focus string) string {
	return fmt.Sprintf(sectionWriterInstructions, focus)
}
