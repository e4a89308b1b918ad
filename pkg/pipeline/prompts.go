package pipeline

import "fmt"

// Fixed instruction templates for the three completion stages. The transcript
// itself is always the user message; these are system instructions.

func diarizationInstruction(speakerLabel string) string {
	return fmt.Sprintf(`Segment this conversation transcript by speaker. Rules:
1. Keep the original wording exactly as transcribed.
2. Start each speaker's turn with "%[1]s N:" where N is the speaker number.
3. Put a blank line between different speakers.
4. Preserve all original spelling and punctuation.
5. Do not use brackets or any other formatting around speaker labels.`, speakerLabel)
}

func localizationInstruction(targetLanguage string) string {
	return fmt.Sprintf(`The transcript mixes languages. Rewrite it entirely in %[1]s. Strict rules:
1. Preserve the word order exactly.
2. Convert each word individually into %[1]s spelling.
3. Do not change the sentence structure.
4. Keep speaker labels and line breaks exactly as they are.
5. Use the correct %[1]s alphabet throughout.`, targetLanguage)
}

func summaryInstruction(targetLanguage string) string {
	return fmt.Sprintf(`Analyze the conversation and respond in %s.
Main content: 2-3 sentences covering the topic of the conversation and its important points.
Key points: 3-4 bullet points of the most important information and conclusions.`, targetLanguage)
}

// defaultTranscriptionPrompt hints the transcription model about
// mixed-language speech so words are kept in their original form.
func defaultTranscriptionPrompt(targetLanguage string) string {
	return fmt.Sprintf("A conversation in %s, possibly mixed with related languages. Keep every word in its original form.", targetLanguage)
}
