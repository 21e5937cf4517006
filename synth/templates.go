package synth

// Default prompts. They are Go templates filled through langchaingo prompts.
const (
	DefaultTextQATemplate = "Context information is below.\n" +
		"---------------------\n" +
		"{{.context_str}}\n" +
		"---------------------\n" +
		"Given the context information and not prior knowledge, answer the question: {{.query_str}}\n"

	DefaultRefineTemplate = "The original question is as follows: {{.query_str}}\n" +
		"We have provided an existing answer: {{.existing_answer}}\n" +
		"We have the opportunity to refine the existing answer (only if needed) with some more context below.\n" +
		"------------\n" +
		"{{.context_msg}}\n" +
		"------------\n" +
		"Given the new context, refine the original answer to better answer the question. " +
		"If the context isn't useful, return the original answer."

	DefaultQueryTemplate = "Some choices are given below. It is provided in a numbered list " +
		"(1 to {{.num_chunks}}), where each item in the list corresponds to a summary.\n" +
		"---------------------\n" +
		"{{.context_list}}" +
		"\n---------------------\n" +
		"Using only the choices above and not prior knowledge, return the top choices " +
		"(no more than {{.branching_factor}}, ranked by most relevant to least) that are most relevant " +
		"to the question: '{{.query_str}}'\n" +
		"Provide choices in the following format: 'ANSWER: <numbers>' and explain why " +
		"these summaries were selected in relation to the question.\n"

	DefaultSummaryTemplate = "Write a summary of the following. Try to use only the information provided. " +
		"Try to include as many key details as possible.\n" +
		"\n" +
		"{{.context_str}}\n" +
		"\n" +
		"SUMMARY:\"\"\"\n"

	DefaultKeywordExtractTemplate = "Some text is provided below. Given the text, extract up to {{.max_keywords}} " +
		"keywords from the text. Avoid stopwords.\n" +
		"---------------------\n" +
		"{{.text}}\n" +
		"---------------------\n" +
		"Provide keywords in the following comma-separated format: 'KEYWORDS: <keywords>'\n"

	DefaultQueryKeywordExtractTemplate = "A question is provided below. Given the question, extract up to " +
		"{{.max_keywords}} keywords from the text. Focus on extracting the keywords that we can use " +
		"to best lookup answers to the question. Avoid stopwords.\n" +
		"---------------------\n" +
		"{{.text}}\n" +
		"---------------------\n" +
		"Provide keywords in the following comma-separated format: 'KEYWORDS: <keywords>'\n"
)

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
