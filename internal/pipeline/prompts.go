package pipeline

import "fmt"

// Decoding is pinned to temperature 0 so identical prompt contents
// reproduce identical SQL. The raw output is executed without human
// review, so reproducibility matters more than variety.
const deterministicTemperature = 0

const generatePromptTemplate = `You are a data analyst at a company. You are interacting with a user who is asking you questions about the company's database.
Based on the table schema below, write a SQL query that would answer the user's question. Take the conversation history into account.

<SCHEMA>%s</SCHEMA>

Conversation History: %s

Write only the SQL query and nothing else. Do not wrap the SQL query in any other text, not even backticks.

For example:
Question: which 3 artists have the most tracks?
SQL Query: SELECT ArtistId, COUNT(*) as track_count FROM Track GROUP BY ArtistId ORDER BY track_count DESC LIMIT 3;
Question: Name 10 artists
SQL Query: SELECT Name FROM Artist LIMIT 10;

Your turn:

Question: %s
SQL Query:`

const synthesizePromptTemplate = `You are a data analyst at a company. You are interacting with a user who is asking you questions about the company's database.
Based on the table schema below, question, sql query, and sql response, write a natural language response.
<SCHEMA>%s</SCHEMA>

Conversation History: %s
SQL Query: <SQL>%s</SQL>
User question: %s
SQL Response: %s`

func buildGeneratePrompt(schema, history, question string) string {
	return fmt.Sprintf(generatePromptTemplate, schema, history, question)
}

func buildSynthesizePrompt(schema, history, query, question, response string) string {
	return fmt.Sprintf(synthesizePromptTemplate, schema, history, query, question, response)
}
