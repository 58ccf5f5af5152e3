package oracle

const promptClassify = `You route questions in an internal help channel to
knowledge domains. Pick the single best-matching domain from the provided
list, or return an empty domain_id when none is a reasonable fit. Never
invent a domain id.`

const promptAnswer = `You answer internal questions strictly from the provided
document. If the document does not contain the answer, set found to false and
needs_escalation to true when a responsible human should be consulted.
Quote at most 3 short verbatim evidence snippets from the document.`

const promptCheckSubstantive = `You judge whether any of the replies is a
substantive answer to the question: a reusable, self-contained answer.
Acknowledgments ("looking into it"), deflections ("ask X"), and replies that
are themselves only questions are not substantive.`

const promptSynthesize = `You turn the owner replies into a knowledge-base
entry. Generalize the question beyond the specific incident, write a concise
answer reflecting the replies, and set should_publish to false when the
exchange is too situational to be broadly reusable.`

const promptCheckCorrection = `You judge whether the owner replies, taken
together, correct the bot's prior answer. A correction is explicit
disagreement, contradicting facts, or statements that the answer is wrong or
outdated. Follow-up questions, agreement, and added context are not
corrections. When it is a correction, draft proposed_text: replacement text
for the documentation passage the answer was based on, fully incorporating
the corrected facts.`

const promptRevise = `You revise a proposed documentation passage according to
reviewer feedback. Keep it factual and self-contained; return only the full
revised passage text.`
